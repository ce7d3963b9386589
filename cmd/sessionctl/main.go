// Command sessionctl inspects a sessionhub store offline and mints
// development bearer tokens.
//
//	sessionctl [-config file] active
//	sessionctl [-config file] recent -user <id>
//	sessionctl [-config file] get -id <session id>
//	sessionctl [-config file] token -external-id <id> [-name n] [-email e] [-ttl 1h]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"sessionhub/internal/app"
	"sessionhub/internal/config"
	"sessionhub/internal/identity"
	"sessionhub/internal/logger"
	"sessionhub/internal/query"
	"sessionhub/pkg/types"
)

var errUsage = errors.New("usage: sessionctl [-config file] active|recent|get|token [flags]")

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		logrus.WithError(err).Fatal("sessionctl failed")
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	global := flag.NewFlagSet("sessionctl", flag.ContinueOnError)
	configPath := global.String("config", os.Getenv("SESSIONHUB_CONFIG_FILE"), "Path to a JSON config file")
	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() == 0 {
		return errUsage
	}

	cfg, err := config.Resolve(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	command, rest := global.Arg(0), global.Args()[1:]
	switch command {
	case "active", "recent", "get":
		return inspect(ctx, cfg, command, rest, out)
	case "token":
		return token(cfg, rest, out)
	default:
		return fmt.Errorf("unknown command %q: %w", command, errUsage)
	}
}

func inspect(ctx context.Context, cfg *config.Config, command string, args []string, out io.Writer) error {
	flags := flag.NewFlagSet(command, flag.ContinueOnError)
	userID := flags.String("user", "", "Internal user id (recent)")
	sessionID := flags.String("id", "", "Session id (get)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	store, err := app.OpenStore(cfg.Database, logger.Discard())
	if err != nil {
		return err
	}
	defer store.Close()
	service := query.NewService(store, logger.Discard())

	var details []*types.SessionDetail
	switch command {
	case "active":
		details, err = service.ListActive(ctx)
	case "recent":
		if *userID == "" {
			return errors.New("recent requires -user")
		}
		details, err = service.ListRecent(ctx, *userID)
	case "get":
		if *sessionID == "" {
			return errors.New("get requires -id")
		}
		var detail *types.SessionDetail
		detail, err = service.Get(ctx, *sessionID)
		details = []*types.SessionDetail{detail}
	}
	if err != nil {
		return err
	}

	renderSessions(out, details)
	return nil
}

func renderSessions(out io.Writer, details []*types.SessionDetail) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"ID", "Problem", "Difficulty", "Status", "Host", "Participant", "Created"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, d := range details {
		table.Append([]string{
			d.ID,
			d.Problem,
			string(d.Difficulty),
			string(d.Status),
			profileName(d.Host, d.HostID),
			profileName(d.Participant, lo.FromPtr(d.ParticipantID)),
			d.CreatedAt.Format(time.RFC3339),
		})
	}
	table.Render()
}

// profileName falls back to the raw id when the user cache has no entry
func profileName(p *types.Profile, id string) string {
	if p != nil && p.Name != "" {
		return p.Name
	}
	if id == "" {
		return "-"
	}
	return id
}

func token(cfg *config.Config, args []string, out io.Writer) error {
	flags := flag.NewFlagSet("token", flag.ContinueOnError)
	externalID := flags.String("external-id", "", "Subject of the token")
	name := flags.String("name", "", "Display name claim")
	email := flags.String("email", "", "Email claim")
	image := flags.String("image", "", "Profile image claim")
	ttl := flags.Duration("ttl", time.Hour, "Token lifetime")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *externalID == "" {
		return errors.New("token requires -external-id")
	}
	if cfg.Identity.Secret == "" {
		return errors.New("identity secret is not configured")
	}
	if *ttl <= 0 {
		return errors.New("ttl must be positive")
	}

	verifier := identity.NewVerifier(cfg.Identity.Secret, cfg.Identity.Issuer, cfg.Identity.Audience)
	signed, err := verifier.Issue(identity.Identity{
		ExternalID: *externalID,
		Name:       *name,
		Email:      *email,
		Image:      *image,
	}, *ttl)
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}
	_, err = fmt.Fprintln(out, signed)
	return err
}
