package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rampkit/ramp"
	"github.com/rampkit/ramp/internal/client"
	"github.com/rampkit/ramp/internal/logging"
	"github.com/rampkit/ramp/pkg/domain"
	"github.com/rampkit/ramp/pkg/session"
)

// runCmd drives a single onboarding session in the terminal.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the interactive onboarding walkthrough",
	Long:  `Starts one onboarding session in the terminal. The account token is read from the RAMP_TOKEN environment variable.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}

		backends, err := buildStores(cfg)
		if err != nil {
			fmt.Printf("Error building store: %v\n", err)
			os.Exit(1)
		}
		defer backends.close()

		logger := logging.New(cfg.LogLevel())
		gateway := client.New(cfg.Gateway.BaseURL,
			client.WithLogger(logger),
			client.WithHTTPClient(&http.Client{Timeout: cfg.Gateway.Timeout.Std()}),
		)

		sessionID, _ := cmd.Flags().GetString("session")
		if sessionID == "" {
			sessionID = session.NewSessionID()
		}

		ctx := context.Background()
		opts := []ramp.Option{
			ramp.WithLogger(logger),
			ramp.WithStateStore(backends.states),
			ramp.WithFragmentStore(backends.fragments),
			ramp.WithRequestTimeout(cfg.Gateway.Timeout.Std()),
		}
		if state, err := backends.states.Load(ctx, sessionID); err == nil {
			opts = append(opts, ramp.WithState(state))
		}

		eng := ramp.New(sessionID, os.Getenv("RAMP_TOKEN"), gateway, opts...)

		switch route := eng.Start(ctx); route {
		case ramp.RouteLogin:
			fmt.Println("Not authenticated. Set RAMP_TOKEN and try again.")
			os.Exit(1)
		case ramp.RouteDashboard:
			fmt.Println("Setup is already complete. Nothing to do.")
			return
		}

		fmt.Println("--- Ramp Onboarding ---")
		fmt.Printf("Session: %s\n", sessionID)
		runLoop(ctx, eng)
	},
}

func runLoop(ctx context.Context, eng *ramp.Engine) {
	reader := bufio.NewReader(os.Stdin)

	for {
		eng.Wait()
		render(eng)

		fmt.Print("> ")
		text, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		cmd, arg, _ := strings.Cut(strings.TrimSpace(text), " ")

		switch cmd {
		case "":
		case "quit", "exit":
			fmt.Println("Bye!")
			return

		case "next":
			if err := eng.Advance(ctx); err != nil {
				fmt.Println("Cannot continue yet: complete this step first.")
			}

		case "back":
			eng.Retreat(ctx)

		case "regen":
			eng.Regenerate(ctx)

		case "done":
			route, err := eng.Complete(ctx)
			if err != nil {
				fmt.Printf("Completion failed: %v\n", err)
				continue
			}
			fmt.Printf("Setup complete. Continue at: %s\n", string(route))
			return

		default:
			if !applyEdit(ctx, eng, cmd, arg) {
				fmt.Println("Commands: next, back, regen, done, quit, and per-step edits (set/name/desc/add/rm/text).")
			}
		}
	}
}

// applyEdit handles the per-step editing commands. Reports whether the
// command was recognized for the current step.
func applyEdit(ctx context.Context, eng *ramp.Engine, cmd, arg string) bool {
	switch eng.State().CurrentStep {
	case domain.StepBusiness:
		switch cmd {
		case "set":
			eng.Business().SetDomain(ctx, arg)
		case "name":
			eng.Business().SetBusinessName(arg)
		case "desc":
			eng.Business().SetDescription(arg)
		case "add":
			eng.Business().AddAudience(arg)
		case "rm":
			if i, err := strconv.Atoi(arg); err == nil {
				eng.Business().RemoveAudience(i)
			}
		default:
			return false
		}
		return true

	case domain.StepCompetitors:
		switch cmd {
		case "add":
			if !eng.Competitors().Add(arg) {
				fmt.Println("Already listed.")
			}
		case "rm":
			if i, err := strconv.Atoi(arg); err == nil {
				eng.Competitors().Remove(i)
			}
		default:
			return false
		}
		return true

	case domain.StepCategories:
		switch cmd {
		case "add":
			if !eng.Categories().Add(arg) {
				fmt.Println("Already listed.")
			}
		case "rm":
			if i, err := strconv.Atoi(arg); err == nil {
				eng.Categories().Remove(i)
			}
		default:
			return false
		}
		return true

	case domain.StepPrompts:
		switch cmd {
		case "text":
			index, rest, _ := strings.Cut(arg, " ")
			if i, err := strconv.Atoi(index); err == nil {
				eng.Prompts().SetText(i, rest)
			}
		case "rm":
			if i, err := strconv.Atoi(arg); err == nil {
				eng.Prompts().Remove(i)
			}
		default:
			return false
		}
		return true
	}
	return false
}

func render(eng *ramp.Engine) {
	state := eng.State()
	def := eng.Active().Definition()

	var marks []string
	for _, p := range eng.Progress() {
		switch p.Status {
		case domain.StatusCompleted:
			marks = append(marks, "[x]")
		case domain.StatusCurrent:
			marks = append(marks, "[*]")
		default:
			marks = append(marks, "[ ]")
		}
	}
	fmt.Printf("\n%s  Step %d/%d: %s\n", strings.Join(marks, " "), def.ID, domain.TotalSteps, def.Title)
	fmt.Println(def.Description)

	if state.Error != "" {
		fmt.Printf("! %s\n", state.Error)
	}

	switch state.CurrentStep {
	case domain.StepBusiness:
		d := eng.Business().Draft()
		fmt.Printf("  domain: %s\n  name: %s\n  description: %s\n", d.Domain, d.BusinessName, d.Description)
		for i, a := range d.TargetAudiences {
			fmt.Printf("  audience %d: %s\n", i, a)
		}
	case domain.StepCompetitors:
		for i, c := range eng.Competitors().Draft() {
			fmt.Printf("  %d: %s\n", i, c)
		}
	case domain.StepCategories:
		for i, c := range eng.Categories().Draft() {
			fmt.Printf("  %d: %s\n", i, c.Name)
		}
	case domain.StepPrompts:
		for i, p := range eng.Prompts().Draft() {
			fmt.Printf("  %d: [%s] %s\n", i, p.Category.Name, p.Text)
		}
	}
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("session", "s", "", "Session ID to resume (defaults to a new session)")
}
