package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"

	"courtcue/internal/auth"
	"courtcue/internal/config"
	"courtcue/internal/content"
	"courtcue/internal/database"
	"courtcue/internal/email"
	"courtcue/internal/models"
	"courtcue/internal/repository"
	"courtcue/internal/storage"
	"courtcue/internal/store"
	"courtcue/internal/sync"
	"courtcue/internal/validation"
)

// app wires the local stores, the auth gate and the remote gateway together
// for the command handlers
type app struct {
	cfg      *config.Config
	local    *storage.Store
	profiles *store.ProfileStore
	sessions *store.SessionStore

	// Remote side, populated by connectRemote
	db     *database.DB
	gate   *auth.Gate
	syncer *sync.Syncer
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg := config.Load()

	local, err := storage.Open(cfg.LocalStorePath)
	if err != nil {
		log.Fatalf("Failed to open local store: %v", err)
	}
	defer local.Close()

	profiles, err := store.NewProfileStore(local.ForKey(storage.KeyUserProfile))
	if err != nil {
		log.Fatalf("Failed to load profile: %v", err)
	}
	sessions, err := store.NewSessionStore(local.ForKey(storage.KeySessionHistory))
	if err != nil {
		log.Fatalf("Failed to load sessions: %v", err)
	}

	a := &app{
		cfg:      cfg,
		local:    local,
		profiles: profiles,
		sessions: sessions,
	}
	defer func() {
		if a.db != nil {
			a.db.Close()
		}
	}()

	switch os.Args[1] {
	case "signup":
		a.handleSignUp(os.Args[2:])
	case "login":
		a.handleLogin(os.Args[2:])
	case "logout":
		a.handleLogout()
	case "reset-password":
		a.handleResetPassword(os.Args[2:])
	case "quiz":
		a.handleQuiz(os.Args[2:])
	case "cues":
		a.handleCues(os.Args[2:])
	case "session":
		a.handleSession(os.Args[2:])
	case "progress":
		a.handleProgress(os.Args[2:])
	case "sync":
		a.handleSync()
	case "status":
		a.handleStatus()
	default:
		printUsage()
		os.Exit(1)
	}
}

// connectRemote opens the remote database and builds the auth gate and
// syncer over it. Commands that never leave the device skip this.
func (a *app) connectRemote() {
	db, err := database.InitializeWithConfig(a.cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	if err := db.RunMigrations(a.cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	a.db = db

	mailer, err := email.NewService(a.cfg.SESRegion, a.cfg.SESFromEmail, a.cfg.SESFromName, a.cfg.AppBaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}

	issuer := auth.NewTokenIssuer(a.cfg.JWTSecret, a.cfg.AccessTokenTTL)
	provider := auth.NewSQLProvider(repository.NewUserRepository(db), issuer, mailer, a.cfg.RefreshTokenTTL)
	a.gate = auth.NewGate(provider, a.local.ForKey(storage.KeyAuthSession))

	if err := a.gate.Initialize(context.Background()); err != nil {
		log.Printf("Warning: failed to restore session: %v", err)
	}

	a.syncer = sync.NewSyncer(a.profiles, a.sessions,
		repository.NewProfileRepository(db),
		repository.NewSessionRepository(db))
}

func (a *app) handleSignUp(args []string) {
	cmd := flag.NewFlagSet("signup", flag.ExitOnError)
	emailFlag := cmd.String("email", "", "Email address (required)")
	password := cmd.String("password", "", "Password, at least 8 characters (required)")
	cmd.Parse(args)

	if *emailFlag == "" || *password == "" {
		fmt.Println("Error: -email and -password are required")
		cmd.PrintDefaults()
		os.Exit(1)
	}

	a.connectRemote()
	ctx := context.Background()

	if err := a.gate.SignUp(ctx, *emailFlag, *password); err != nil {
		fmt.Println(a.gate.Err())
		os.Exit(1)
	}

	fmt.Printf("Account created for %s\n", *emailFlag)
	a.runSync()
}

func (a *app) handleLogin(args []string) {
	cmd := flag.NewFlagSet("login", flag.ExitOnError)
	emailFlag := cmd.String("email", "", "Email address (required)")
	password := cmd.String("password", "", "Password (required)")
	cmd.Parse(args)

	if *emailFlag == "" || *password == "" {
		fmt.Println("Error: -email and -password are required")
		cmd.PrintDefaults()
		os.Exit(1)
	}

	a.connectRemote()
	ctx := context.Background()

	if err := a.gate.SignIn(ctx, *emailFlag, *password); err != nil {
		fmt.Println(a.gate.Err())
		os.Exit(1)
	}

	fmt.Printf("Signed in as %s\n", *emailFlag)
	a.runSync()
}

func (a *app) handleLogout() {
	a.connectRemote()
	if err := a.gate.SignOut(context.Background()); err != nil {
		log.Fatalf("Failed to sign out: %v", err)
	}
	fmt.Println("Signed out")
}

func (a *app) handleResetPassword(args []string) {
	cmd := flag.NewFlagSet("reset-password", flag.ExitOnError)
	emailFlag := cmd.String("email", "", "Email address to send a reset link to")
	token := cmd.String("token", "", "Reset token from the email")
	password := cmd.String("password", "", "New password, used with -token")
	cmd.Parse(args)

	a.connectRemote()
	ctx := context.Background()

	switch {
	case *emailFlag != "":
		if err := a.gate.RequestPasswordReset(ctx, *emailFlag); err != nil {
			fmt.Println(a.gate.Err())
			os.Exit(1)
		}
		fmt.Println("If that address has an account, a reset link is on its way")

	case *token != "" && *password != "":
		if err := a.gate.ResetPassword(ctx, *token, *password); err != nil {
			fmt.Println(a.gate.Err())
			os.Exit(1)
		}
		fmt.Println("Password updated. Sign in with your new password.")

	default:
		fmt.Println("Error: pass -email to request a reset, or -token and -password to complete one")
		cmd.PrintDefaults()
		os.Exit(1)
	}
}

func (a *app) handleQuiz(args []string) {
	cmd := flag.NewFlagSet("quiz", flag.ExitOnError)
	answers := cmd.String("answers", "", "Comma-separated chosen option ids, one per question")
	cmd.Parse(args)

	questions := content.QuizQuestions()

	if *answers == "" {
		fmt.Println("Skill assessment: answer every question, then run:")
		fmt.Println("  courtcue quiz -answers <option-id,option-id,...>")
		fmt.Println()
		for _, q := range questions {
			fmt.Printf("%s\n", q.Question)
			for _, opt := range q.Options {
				fmt.Printf("  [%s] %s\n", opt.ID, opt.Label)
			}
			fmt.Println()
		}
		return
	}

	chosen := strings.Split(*answers, ",")
	if len(chosen) != len(questions) {
		fmt.Printf("Error: expected %d answers, got %d\n", len(questions), len(chosen))
		os.Exit(1)
	}

	var quizAnswers []models.QuizAnswer
	for i, q := range questions {
		id := strings.TrimSpace(chosen[i])
		var matched *models.QuizOption
		for j := range q.Options {
			if q.Options[j].ID == id {
				matched = &q.Options[j]
				break
			}
		}
		if matched == nil {
			fmt.Printf("Error: %q is not an option for question %q\n", id, q.ID)
			os.Exit(1)
		}
		quizAnswers = append(quizAnswers, models.QuizAnswer{
			QuestionID: q.ID,
			AnswerID:   matched.ID,
			Points:     matched.Points,
		})
	}

	total := 0
	for _, answer := range quizAnswers {
		total += answer.Points
	}
	level := content.CalculateLevel(total)

	if err := a.profiles.SetQuizAnswers(quizAnswers); err != nil {
		log.Fatalf("Failed to save answers: %v", err)
	}
	if err := a.profiles.SetLevel(level); err != nil {
		log.Fatalf("Failed to save level: %v", err)
	}
	if err := a.profiles.CompleteOnboarding(); err != nil {
		log.Fatalf("Failed to complete onboarding: %v", err)
	}

	fmt.Printf("Assessment complete: %d points, level %s\n", total, level)
	fmt.Println("Browse cues for your level with: courtcue cues list")
}

func (a *app) handleCues(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: courtcue cues <list|active|toggle> [options]")
		os.Exit(1)
	}

	switch args[0] {
	case "list":
		cmd := flag.NewFlagSet("cues list", flag.ExitOnError)
		level := cmd.String("level", "", "Filter by level: beginner, intermediate, advanced")
		stroke := cmd.String("stroke", "", "Filter by stroke type, e.g. forehand, serve")
		area := cmd.String("area", "", "Filter by skill area, e.g. technique, footwork")
		cmd.Parse(args[1:])

		cues := content.Cues()
		if *level != "" {
			cues = content.CuesByLevel(models.SkillLevel(*level))
		}
		if *stroke != "" {
			cues = filterByStroke(cues, models.StrokeType(*stroke))
		}
		if *area != "" {
			cues = filterByArea(cues, models.SkillArea(*area))
		}

		profile := a.profiles.Profile()
		for _, cue := range cues {
			marker := " "
			if profile.HasActiveCue(cue.ID) {
				marker = "*"
			}
			fmt.Printf("%s [%s] %s: %s\n", marker, cue.ID, cue.Title, cue.ShortDescription)
		}
		fmt.Printf("\n%d cues (* = active)\n", len(cues))

	case "active":
		profile := a.profiles.Profile()
		if len(profile.ActiveCueIDs) == 0 {
			fmt.Println("No active cues. Add one with: courtcue cues toggle -id <cue-id>")
			return
		}
		for _, id := range profile.ActiveCueIDs {
			cue := content.CueByID(id)
			fmt.Printf("[%s] %s: %s\n", cue.ID, cue.Title, cue.ShortDescription)
		}

	case "toggle":
		cmd := flag.NewFlagSet("cues toggle", flag.ExitOnError)
		id := cmd.String("id", "", "Cue id to toggle (required)")
		cmd.Parse(args[1:])

		if *id == "" {
			fmt.Println("Error: -id is required")
			os.Exit(1)
		}
		if !content.KnownCue(*id) {
			fmt.Printf("Warning: %q is not in the cue library\n", *id)
		}

		if err := a.profiles.ToggleActiveCue(*id); err != nil {
			log.Fatalf("Failed to toggle cue: %v", err)
		}
		if a.profiles.Profile().HasActiveCue(*id) {
			fmt.Printf("Cue %s is now active\n", *id)
		} else {
			fmt.Printf("Cue %s is no longer active\n", *id)
		}

	default:
		fmt.Println("Usage: courtcue cues <list|active|toggle> [options]")
		os.Exit(1)
	}
}

func (a *app) handleSession(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: courtcue session <add|list|show|delete> [options]")
		os.Exit(1)
	}

	switch args[0] {
	case "add":
		cmd := flag.NewFlagSet("session add", flag.ExitOnError)
		ratings := cmd.String("ratings", "", "Ratings as cue-id=stars pairs, e.g. fh-1=4,srv-2=3 (required)")
		notes := cmd.String("notes", "", "Free-form session notes")
		cmd.Parse(args[1:])

		cueRatings, err := parseRatings(*ratings)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		session, err := a.sessions.AddSession(cueRatings, *notes)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Session %s logged with %d rating(s)\n", session.ID, len(session.CueRatings))

	case "list":
		cmd := flag.NewFlagSet("session list", flag.ExitOnError)
		limit := cmd.Int("limit", 0, "Show only the most recent N sessions")
		cmd.Parse(args[1:])

		all := a.sessions.Sessions()
		if *limit > 0 {
			all = a.sessions.GetRecentSessions(*limit)
		}
		if len(all) == 0 {
			fmt.Println("No sessions yet. Log one with: courtcue session add")
			return
		}
		for _, session := range all {
			fmt.Printf("%s  %s  %d rating(s)", session.Date.Format("2006-01-02 15:04"), session.ID, len(session.CueRatings))
			if session.Notes != "" {
				fmt.Printf("  %s", session.Notes)
			}
			fmt.Println()
		}

	case "show":
		cmd := flag.NewFlagSet("session show", flag.ExitOnError)
		id := cmd.String("id", "", "Session id (required)")
		cmd.Parse(args[1:])

		session, err := a.sessions.GetSessionByID(*id)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Session %s (%s)\n", session.ID, session.Date.Format("2006-01-02 15:04"))
		if session.Notes != "" {
			fmt.Printf("Notes: %s\n", session.Notes)
		}
		for _, rating := range session.CueRatings {
			cue := content.CueByID(rating.CueID)
			fmt.Printf("  %s  %s  %s\n", stars(rating.Rating), rating.CueID, cue.Title)
		}

	case "delete":
		cmd := flag.NewFlagSet("session delete", flag.ExitOnError)
		id := cmd.String("id", "", "Session id (required)")
		cmd.Parse(args[1:])

		if *id == "" {
			fmt.Println("Error: -id is required")
			os.Exit(1)
		}
		if err := a.sessions.DeleteSession(*id); err != nil {
			log.Fatalf("Failed to delete session: %v", err)
		}
		fmt.Printf("Session %s deleted locally\n", *id)

		// Propagate to the remote store when an account is signed in,
		// otherwise the next sync would bring the session back
		if _, ok, err := a.local.ForKey(storage.KeyAuthSession).Load(); err != nil || !ok {
			return
		}
		a.connectRemote()
		if a.gate.State() != auth.StateAuthenticated {
			return
		}
		sessionRepo := repository.NewSessionRepository(a.db)
		if err := sessionRepo.DeleteSession(a.gate.Session().UserID, *id); err != nil {
			log.Printf("Warning: failed to delete remote copy: %v", err)
			fmt.Println("Remote copy not removed; it will reappear on the next sync")
			return
		}
		fmt.Println("Removed from your account as well")

	default:
		fmt.Println("Usage: courtcue session <add|list|show|delete> [options]")
		os.Exit(1)
	}
}

func (a *app) handleProgress(args []string) {
	cmd := flag.NewFlagSet("progress", flag.ExitOnError)
	cueID := cmd.String("cue", "", "Cue id to chart (required)")
	cmd.Parse(args)

	if *cueID == "" {
		fmt.Println("Error: -cue is required")
		os.Exit(1)
	}

	points := a.sessions.GetCueProgress(*cueID)
	if len(points) == 0 {
		fmt.Printf("No ratings recorded for %s yet\n", *cueID)
		return
	}

	cue := content.CueByID(*cueID)
	fmt.Printf("Progress for %s (%s)\n", cue.Title, *cueID)
	for _, point := range points {
		fmt.Printf("%s  %s\n", point.Date.Format("2006-01-02"), stars(point.Rating))
	}
}

func (a *app) handleSync() {
	a.connectRemote()
	if a.gate.State() != auth.StateAuthenticated {
		fmt.Println("Sign in first: courtcue login -email <email> -password <password>")
		os.Exit(1)
	}
	a.runSync()
}

func (a *app) handleStatus() {
	profile := a.profiles.Profile()

	fmt.Printf("Level: %s\n", levelOrUnset(profile.Level))
	fmt.Printf("Onboarding complete: %v\n", profile.HasCompletedOnboarding)
	fmt.Printf("Active cues: %d\n", len(profile.ActiveCueIDs))
	fmt.Printf("Sessions logged: %d\n", len(a.sessions.Sessions()))

	if _, ok, err := a.local.ForKey(storage.KeyAuthSession).Load(); err == nil && ok {
		fmt.Println("Account: signed in")
	} else {
		fmt.Println("Account: signed out (local only)")
	}
}

// runSync reconciles local and remote state for the signed-in user
func (a *app) runSync() {
	session := a.gate.Session()
	if session == nil {
		return
	}

	outcome := a.syncer.MergeAndSync(session.UserID)
	switch outcome.Status {
	case sync.StatusSynced:
		fmt.Println("Sync complete")
	case sync.StatusPartial:
		fmt.Println("Sync partially complete; run sync again to repair:")
		for _, problem := range outcome.Problems {
			fmt.Printf("  - %s\n", problem)
		}
	case sync.StatusFailed:
		fmt.Println("Sync failed; your local data is untouched")
		for _, problem := range outcome.Problems {
			log.Printf("sync: %s", problem)
		}
	}
}

func parseRatings(raw string) ([]models.CueRating, error) {
	if raw == "" {
		return nil, fmt.Errorf("-ratings is required, e.g. -ratings fh-1=4,srv-2=3")
	}

	var ratings []models.CueRating
	for _, pair := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed rating %q, expected cue-id=stars", pair)
		}
		value, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, fmt.Errorf("malformed rating %q: %v", pair, err)
		}
		if err := validation.ValidateRating(value); err != nil {
			return nil, err
		}
		ratings = append(ratings, models.CueRating{CueID: parts[0], Rating: value})
	}

	sort.Slice(ratings, func(i, j int) bool { return ratings[i].CueID < ratings[j].CueID })
	return ratings, nil
}

func filterByStroke(cues []models.Cue, stroke models.StrokeType) []models.Cue {
	var filtered []models.Cue
	for _, cue := range cues {
		if cue.StrokeType == stroke {
			filtered = append(filtered, cue)
		}
	}
	return filtered
}

func filterByArea(cues []models.Cue, area models.SkillArea) []models.Cue {
	var filtered []models.Cue
	for _, cue := range cues {
		if cue.SkillArea == area {
			filtered = append(filtered, cue)
		}
	}
	return filtered
}

func stars(rating int) string {
	return strings.Repeat("★", rating) + strings.Repeat("☆", 5-rating)
}

func levelOrUnset(level models.SkillLevel) string {
	if level == "" {
		return "(not assessed)"
	}
	return string(level)
}

func printUsage() {
	fmt.Println("CourtCue: tennis practice cues with progress tracking")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  courtcue signup -email <email> -password <password>")
	fmt.Println("  courtcue login -email <email> -password <password>")
	fmt.Println("  courtcue logout")
	fmt.Println("  courtcue reset-password -email <email>")
	fmt.Println("  courtcue reset-password -token <token> -password <new-password>")
	fmt.Println()
	fmt.Println("  courtcue quiz [-answers <option-ids>]     Take the skill assessment")
	fmt.Println("  courtcue cues list [-level|-stroke|-area] Browse the cue library")
	fmt.Println("  courtcue cues active                      Show your active cues")
	fmt.Println("  courtcue cues toggle -id <cue-id>         Activate or deactivate a cue")
	fmt.Println()
	fmt.Println("  courtcue session add -ratings fh-1=4,...  Log a practice session")
	fmt.Println("  courtcue session list [-limit N]          List sessions, newest first")
	fmt.Println("  courtcue session show -id <session-id>    Show one session")
	fmt.Println("  courtcue session delete -id <session-id>  Delete a session locally")
	fmt.Println("  courtcue progress -cue <cue-id>           Rating history for a cue")
	fmt.Println()
	fmt.Println("  courtcue sync                             Reconcile with your account")
	fmt.Println("  courtcue status                           Local state overview")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  LOCAL_STORE_PATH  Local state database (default: ./courtcue.db)")
	fmt.Println("  DB_TYPE           Remote database type: sqlite, postgres, or mysql")
	fmt.Println("  DB_PATH           SQLite remote database path")
	fmt.Println("  DB_URL            PostgreSQL or MySQL connection URL")
	fmt.Println("  JWT_SECRET        Access token signing secret")
	fmt.Println("  SES_FROM_EMAIL    Enables password reset email delivery")
}
