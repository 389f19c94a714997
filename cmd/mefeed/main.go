// Command mefeed is a small terminal client for the Me Feed API: log in,
// inspect the account, list the media library, log out. It doubles as a
// smoke test for the SDK against a real backend.
//
// Configuration comes from a YAML profile (~/.config/mefeed/config.yaml by
// default) overlaid with MEFEED_* environment variables; see pkg/tokenmgr.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mefeed/client-go/pkg/apiclient"
	"github.com/mefeed/client-go/pkg/logger"
	"github.com/mefeed/client-go/pkg/tokenmgr"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "mefeed:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := flag.NewFlagSet("mefeed", flag.ContinueOnError)
	profilePath := flags.String("profile", defaultProfilePath(), "path of the YAML profile")
	verbose := flags.Bool("v", false, "debug logging")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if flags.NArg() < 1 {
		return errors.New("usage: mefeed [-profile path] [-v] login|me|media|sessions|logout")
	}

	logOpts := []logger.Option{logger.WithComponent("mefeed")}
	if *verbose {
		logOpts = append(logOpts, logger.WithLevel(slog.LevelDebug))
	}
	log := logger.NewFromEnv(logOpts...)

	cfg, err := loadProfile(*profilePath)
	if err != nil {
		return err
	}

	session, err := tokenmgr.NewFromConfig(cfg, tokenmgr.WithLogger(log))
	if err != nil {
		return err
	}
	defer session.Close()

	client := apiclient.New(session)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	switch cmd := flags.Arg(0); cmd {
	case "login":
		return runLogin(ctx, session)
	case "me":
		return runMe(ctx, client)
	case "media":
		return runMedia(ctx, client)
	case "sessions":
		return runSessions(ctx, client)
	case "logout":
		return session.Logout(ctx)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func runLogin(ctx context.Context, session *tokenmgr.Manager) error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Print("Email: ")
	email, err := reader.ReadString('\n')
	if err != nil {
		return err
	}

	fmt.Print("Password: ")
	password, err := reader.ReadString('\n')
	if err != nil {
		return err
	}

	if _, err := session.Login(ctx, strings.TrimSpace(email), strings.TrimSpace(password)); err != nil {
		if errors.Is(err, tokenmgr.ErrInvalidCredentials) {
			return errors.New("incorrect email or password")
		}
		return err
	}

	fmt.Println("Logged in.")
	return nil
}

func runMe(ctx context.Context, client *apiclient.Client) error {
	me, err := client.Me(ctx)
	if err != nil {
		return describeSessionError(err)
	}

	fmt.Printf("%s (verified: %t, member since %s)\n",
		me.Email, me.EmailVerified, me.CreatedAt.Format("2006-01-02"))
	return nil
}

func runMedia(ctx context.Context, client *apiclient.Client) error {
	list, err := client.ListMedia(ctx, apiclient.ListMediaOptions{Limit: 50})
	if err != nil {
		return describeSessionError(err)
	}

	for _, item := range list.Items {
		fmt.Printf("%-40s %-10s %s\n", item.Media.Title, item.Media.Type, item.Status)
	}
	fmt.Printf("%d of %d items\n", len(list.Items), list.Total)
	return nil
}

func runSessions(ctx context.Context, client *apiclient.Client) error {
	sessions, err := client.Sessions(ctx)
	if err != nil {
		return describeSessionError(err)
	}

	for _, s := range sessions {
		fmt.Printf("%s  %-15s  %s  expires %s\n",
			s.ID, s.IPAddress, s.CreatedAt.Format(time.RFC3339), s.ExpiresAt.Format(time.RFC3339))
	}
	return nil
}

func describeSessionError(err error) error {
	switch {
	case errors.Is(err, tokenmgr.ErrNotAuthenticated):
		return errors.New("not logged in; run: mefeed login")
	case errors.Is(err, tokenmgr.ErrSessionExpired):
		return errors.New("session expired; run: mefeed login")
	default:
		return err
	}
}

func defaultProfilePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "mefeed.yaml"
	}
	return filepath.Join(dir, "mefeed", "config.yaml")
}
