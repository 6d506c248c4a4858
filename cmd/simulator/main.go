// Simulator - interactive CLI chat loop to exercise the auth flow
// without WhatsApp. Identity lookups go straight to the local directory
// and OTP codes are printed to the terminal.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ashureev/whatsapp-agent/internal/agent"
	"github.com/ashureev/whatsapp-agent/internal/config"
	"github.com/ashureev/whatsapp-agent/internal/domain"
	"github.com/ashureev/whatsapp-agent/internal/mockapi"
	"github.com/ashureev/whatsapp-agent/internal/router"
	"github.com/ashureev/whatsapp-agent/internal/session"
	"github.com/ashureev/whatsapp-agent/internal/store"
	"github.com/joho/godotenv"
)

func main() {
	// Keep slog noise out of the interactive transcript.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	if err := godotenv.Load(); err == nil {
		slog.Debug(".env loaded")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		os.Exit(1)
	}

	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to open database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	if _, err := store.SeedIfEmpty(context.Background(), repo); err != nil {
		fmt.Fprintln(os.Stderr, "failed to seed directory:", err)
		os.Exit(1)
	}

	directory := &storeDirectory{repo: repo}
	otp := &consoleOTP{store: mockapi.NewOTPStore()}
	sessions := session.NewManager()
	rt := router.New(sessions, agent.NewAuthAgent(directory, otp))

	fmt.Println(strings.Repeat("=", 52))
	fmt.Println("  🤖  WhatsApp Agent - Chat Simulator")
	fmt.Println(strings.Repeat("=", 52))
	fmt.Println()
	fmt.Println("Tip: Use +15551234567 (known) or +19999999999 (unknown)")
	fmt.Println("     Type 'quit' to exit, 'switch' to change phone number")
	fmt.Println()

	in := bufio.NewScanner(os.Stdin)
	phone := prompt(in, "Enter phone number to simulate: ")
	if phone == "" {
		phone = "+19999999999"
	}
	fmt.Printf("Simulating as %s\n\n", phone)

	for {
		input := prompt(in, "You: ")
		switch strings.ToLower(input) {
		case "":
			continue
		case "quit":
			fmt.Println("Goodbye!")
			return
		case "switch":
			phone = prompt(in, "New phone number: ")
			fmt.Printf("Switched to %s\n\n", phone)
			continue
		case "logout":
			sessions.Clear(phone)
			fmt.Println("Agent: 👋 You have been logged out. Send any message to start again.")
			fmt.Println()
			continue
		}

		reply := rt.Route(context.Background(), phone, input)
		fmt.Printf("Agent: %s\n\n", reply.Text)
	}
}

func prompt(in *bufio.Scanner, label string) string {
	fmt.Print(label)
	if !in.Scan() {
		fmt.Println("\nGoodbye!")
		os.Exit(0)
	}
	return strings.TrimSpace(in.Text())
}

// storeDirectory resolves identities against the local directory store.
type storeDirectory struct {
	repo store.Repository
}

func (d *storeDirectory) LookupByPhone(ctx context.Context, phone string) (*domain.IdentityRecord, error) {
	user, err := d.repo.FindByPhone(ctx, phone)
	if err != nil || user == nil {
		return nil, err
	}
	record := user.Identity()
	return &record, nil
}

func (d *storeDirectory) LookupByClientID(ctx context.Context, code string) (*domain.IdentityRecord, error) {
	user, err := d.repo.FindByClientCode(ctx, code)
	if err != nil || user == nil {
		return nil, err
	}
	record := user.Identity()
	return &record, nil
}

// consoleOTP issues codes from the in-memory OTP store and prints them to
// the terminal instead of emailing them.
type consoleOTP struct {
	store *mockapi.OTPStore
}

func (c *consoleOTP) SendOTP(_ context.Context, clientID string) (bool, error) {
	code := c.store.Generate(clientID)
	fmt.Printf("📧 [simulator] OTP for %s: %s\n", clientID, code)
	return true, nil
}

func (c *consoleOTP) VerifyOTP(_ context.Context, clientID, otp string) (bool, error) {
	return c.store.Verify(clientID, otp), nil
}
