package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dukerupert/north/internal/backup"
	"github.com/dukerupert/north/internal/config"
	"github.com/dukerupert/north/internal/contract"
	"github.com/dukerupert/north/internal/engine"
	"github.com/dukerupert/north/internal/model"
	"github.com/dukerupert/north/internal/push"
	"github.com/dukerupert/north/internal/store"
)

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Promote contracts whose unlock time has passed",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			ids := a.engine.SweepContracts()
			if v.GetBool("json") {
				return printJSON(cmd.OutOrStdout(), map[string]any{"promoted": ids})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "promoted %d contract(s)\n", len(ids))
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), "  "+id)
			}
			return nil
		},
	}
}

func contractsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "contracts", Short: "Inspect and create contracts"}
	cmd.AddCommand(contractsListCmd())
	cmd.AddCommand(contractsCreateCmd())
	cmd.AddCommand(contractsSummaryCmd())
	return cmd
}

func contractsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List contracts with their live status",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			views := a.engine.Contracts()
			if v.GetBool("json") {
				return printJSON(cmd.OutOrStdout(), views)
			}
			renderContracts(cmd.OutOrStdout(), views)
			return nil
		},
	}
}

func renderContracts(w io.Writer, views []engine.ContractView) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"ID", "Promise", "Status", "Label", "Countdown", "Deadline"})
	for _, c := range views {
		tw.AppendRow(table.Row{c.ID, c.Promise, c.Status, c.Label, c.Countdown, c.DeadlineAt.Local().Format("Jan 2 15:04")})
	}
	tw.Render()
}

func contractsCreateCmd() *cobra.Command {
	var (
		promise  string
		in       time.Duration
		unlockIn time.Duration
		contacts string
		shared   bool
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a contract",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			now := time.Now()
			d := contract.Draft{
				Promise:        promise,
				DeadlineAt:     now.Add(in),
				Contacts:       contract.ParseContacts(contacts),
				SharedToCircle: shared,
			}
			if unlockIn > 0 {
				d.UnlockAt = now.Add(unlockIn)
			}
			c, err := a.engine.CreateContract(d)
			if err != nil {
				return err
			}
			if v.GetBool("json") {
				return printJSON(cmd.OutOrStdout(), c)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s, due %s\n", c.ID, c.DeadlineAt.Local().Format(time.RFC1123))
			return nil
		},
	}
	cmd.Flags().StringVar(&promise, "promise", "", "what you promise to do")
	cmd.Flags().DurationVar(&in, "in", 24*time.Hour, "time until the deadline")
	cmd.Flags().DurationVar(&unlockIn, "unlock-in", 0, "time until proof unlocks (defaults to the deadline)")
	cmd.Flags().StringVar(&contacts, "contacts", "", "comma-separated emails or phone numbers")
	cmd.Flags().BoolVar(&shared, "share", false, "share to circle")
	return cmd
}

func contractsSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show mascot mood and keep level",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()
			return printJSON(cmd.OutOrStdout(), a.engine.Summary())
		},
	}
}

func streakCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "streak",
		Short: "Show the journal streak and weekly progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			s := a.engine.Streak()
			if v.GetBool("json") {
				return printJSON(cmd.OutOrStdout(), s)
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.AppendHeader(table.Row{"Current", "Longest", "Today", "This week", "Progress"})
			tw.AppendRow(table.Row{
				s.Current,
				s.Longest,
				s.HasEntryToday,
				fmt.Sprintf("%d/%d", s.Weekly.EntriesThisWeek, s.Weekly.Goal),
				strconv.Itoa(int(s.Weekly.Progress*100)) + "%",
			})
			tw.Render()
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the full snapshot as JSON or YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()
			return writeSnapshot(cmd.OutOrStdout(), a.engine.Snapshot(), format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json or yaml")
	return cmd
}

// writeSnapshot encodes snap in format. YAML output goes through the JSON
// encoding so both formats share the same field names.
func writeSnapshot(w io.Writer, snap model.Snapshot, format string) error {
	switch format {
	case "json":
		return printJSON(w, snap)
	case "yaml", "yml":
		data, err := json.Marshal(snap)
		if err != nil {
			return fmt.Errorf("encode snapshot: %w", err)
		}
		var doc any
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("decode snapshot: %w", err)
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func backupConfig(cfg *config.Config) backup.Config {
	return backup.Config{
		S3: backup.S3Config{
			Endpoint:  cfg.Backup.Endpoint,
			Bucket:    cfg.Backup.Bucket,
			Region:    cfg.Backup.Region,
			AccessKey: cfg.Backup.AccessKey,
			SecretKey: cfg.Backup.SecretKey,
		},
		Passphrase: cfg.Backup.Passphrase,
		Interval:   cfg.Backup.Interval,
		Retention:  cfg.Backup.Retention,
	}
}

func backupCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "backup", Short: "Encrypted snapshot backups"}
	cmd.AddCommand(backupNowCmd())
	cmd.AddCommand(backupListCmd())
	cmd.AddCommand(backupRestoreCmd())
	return cmd
}

func openBackups(cmd *cobra.Command) (*app, *backup.Manager, error) {
	a, err := openEngine(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	m := backup.NewManager(backupConfig(a.cfg), store.NewBackupStore(a.db), a.engine, nil, a.logger)
	return a, m, nil
}

func backupNowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "now",
		Short: "Upload an encrypted snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, m, err := openBackups(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			b, err := m.RunNow(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "uploaded %s (%d bytes)\n", b.S3Key, b.SizeBytes)
			return nil
		},
	}
}

func backupListCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded backups",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, m, err := openBackups(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			backups, err := m.List(limit)
			if err != nil {
				return err
			}
			if v.GetBool("json") {
				return printJSON(cmd.OutOrStdout(), backups)
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.AppendHeader(table.Row{"ID", "Key", "Status", "Size", "Created"})
			for _, b := range backups {
				tw.AppendRow(table.Row{b.ID, b.S3Key, b.Status, b.SizeBytes, b.CreatedAt.Local().Format(time.DateTime)})
			}
			tw.Render()
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum rows")
	return cmd
}

func backupRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore [s3-key]",
		Short: "Restore a backup (latest when no key is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, m, err := openBackups(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			key := ""
			if len(args) == 1 {
				key = args[0]
			}
			if err := m.Restore(cmd.Context(), key); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "restored")
			return nil
		},
	}
}

func vapidCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vapid",
		Short: "Generate a VAPID key pair for web push",
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, priv, err := push.GenerateVAPIDKeys()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "NORTH_PUSH_VAPID_PUBLIC_KEY=%s\nNORTH_PUSH_VAPID_PRIVATE_KEY=%s\n", pub, priv)
			return nil
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
