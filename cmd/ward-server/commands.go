package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/imdcare/ward/internal/export"
	"github.com/imdcare/ward/internal/platform/db"
	"github.com/imdcare/ward/internal/platform/sandbox"
	"github.com/imdcare/ward/internal/report"
	"github.com/imdcare/ward/migrations"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	// migrate up
	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			schema := schemaFlag(cmd, cfg.DBSchema)

			ctx := context.Background()
			pool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, migrations.FS)
			fmt.Fprintf(cmd.OutOrStdout(), "Running migrations on schema: %s\n", schema)

			count, err := migrator.Up(ctx, schema)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("schema", "", "Target schema (defaults to DB_SCHEMA)")
	cmd.AddCommand(upCmd)

	// migrate status
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			schema := schemaFlag(cmd, cfg.DBSchema)

			ctx := context.Background()
			pool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, migrations.FS).Status(ctx, schema)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			printMigrationStatus(cmd.OutOrStdout(), schema, statuses)
			return nil
		},
	}
	statusCmd.Flags().String("schema", "", "Target schema (defaults to DB_SCHEMA)")
	cmd.AddCommand(statusCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Rollback last migration (not supported)",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), "WARNING: migrate down is not supported by the built-in runner.")
			fmt.Fprintln(cmd.OutOrStdout(), "Restore from a backup or drop the schema and run migrate up.")
			return nil
		},
	})

	return cmd
}

func schemaFlag(cmd *cobra.Command, fallback string) string {
	if s, _ := cmd.Flags().GetString("schema"); s != "" {
		return s
	}
	return fallback
}

func printMigrationStatus(w io.Writer, schema string, statuses []db.MigrationStatus) {
	fmt.Fprintf(w, "Migration status for schema: %s\n", schema)
	fmt.Fprintf(w, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	fmt.Fprintln(w, "---------- ---------------------------------------- ---------- --------------------")
	for _, s := range statuses {
		status := "pending"
		appliedAt := ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(w, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
}

func seedCmd() *cobra.Command {
	sc := sandbox.DefaultSeedConfig()
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate demo doctors, admissions, consultations and appointments",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if !cfg.IsDev() {
				if force, _ := cmd.Flags().GetBool("force"); !force {
					return fmt.Errorf("refusing to seed with ENV=%q; pass --force", cfg.Env)
				}
			}

			ctx := context.Background()
			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			seeder := sandbox.NewSeeder(sc, sandbox.Target{
				Doctors:       sandbox.NewPGDoctors(a.pool),
				Patients:      a.patients,
				Consultations: a.consultations,
				Appointments:  a.appointments,
			}, logger.With().Str("component", "seed").Logger())

			res, err := seeder.Run(ctx)
			if res != nil {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				_ = enc.Encode(res)
			}
			return err
		},
	}
	f := cmd.Flags()
	f.IntVar(&sc.PatientCount, "patients", sc.PatientCount, "Number of distinct patients")
	f.IntVar(&sc.ReadmissionPercent, "readmissions", sc.ReadmissionPercent, "Percent of patients readmitted")
	f.IntVar(&sc.DischargePercent, "discharges", sc.DischargePercent, "Percent of latest admissions discharged")
	f.IntVar(&sc.SafetyPercent, "safety", sc.SafetyPercent, "Percent of admissions with a safety type")
	f.IntVar(&sc.DoctorCount, "doctors", sc.DoctorCount, "Number of doctors")
	f.IntVar(&sc.ConsultationCount, "consultations", sc.ConsultationCount, "Number of consultations")
	f.IntVar(&sc.AppointmentCount, "appointments", sc.AppointmentCount, "Number of appointments")
	f.IntVar(&sc.Days, "days", sc.Days, "Spread admissions over this many past days")
	f.Int64Var(&sc.Seed, "seed", sc.Seed, "Random seed (0 uses the current time)")
	f.Bool("force", false, "Allow seeding outside development")
	return cmd
}

func appointmentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "appointments",
		Short: "Manage clinic appointments",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Delete appointments older than APPOINTMENT_TTL",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := context.Background()
			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.appointments.PurgeExpired(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d expired appointment(s).\n", n)
			return nil
		},
	})
	return cmd
}

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Ward reports",
	}

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export the filtered report to a PDF or spreadsheet file",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, _ := cmd.Flags().GetString("start")
			end, _ := cmd.Flags().GetString("end")
			specialty, _ := cmd.Flags().GetString("specialty")
			tab, _ := cmd.Flags().GetString("tab")
			formatFlag, _ := cmd.Flags().GetString("format")
			out, _ := cmd.Flags().GetString("out")

			filter, err := report.ParseFilter(start, end, specialty, tab, time.Now())
			if err != nil {
				return err
			}
			format, err := export.ParseFormat(formatFlag)
			if err != nil {
				return err
			}

			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := context.Background()
			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.stores.Refresh(ctx); err != nil {
				return fmt.Errorf("load ward data: %w", err)
			}
			exp, err := newExporter(ctx, cfg, logger)
			if err != nil {
				return err
			}

			filtered := report.Aggregate(a.stores.Dataset(), filter)
			warnIfEmpty(cmd.ErrOrStderr(), filtered)
			res, err := exp.Export(ctx, filtered, format)
			if err != nil {
				return err
			}
			path, err := writeExport(res, out)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes)\n", path, len(res.Data))
			return nil
		},
	}
	f := exportCmd.Flags()
	f.String("start", "", "First day, YYYY-MM-DD (defaults to today)")
	f.String("end", "", "Last day, YYYY-MM-DD (defaults to start)")
	f.String("specialty", report.AllSpecialties, "Department or specialty filter")
	f.String("tab", string(report.TabAll), "all, admissions, consultations or appointments")
	f.String("format", string(export.FormatPDF), "pdf or xlsx")
	f.String("out", "", "Output file or directory (defaults to the generated file name)")
	cmd.AddCommand(exportCmd)
	return cmd
}

// warnIfEmpty notes an export whose selected sections have no rows. The file
// is still written so the period can be archived.
func warnIfEmpty(w io.Writer, res report.Filtered) {
	if !res.Empty() {
		return
	}
	fmt.Fprintf(w, "Warning: no %s rows match %s (specialty %s)\n",
		res.Filter.Tab, res.Filter.Range, res.Filter.Specialty)
}

// writeExport writes res to out. An empty out or an existing directory
// receives the generated file name.
func writeExport(res *export.Result, out string) (string, error) {
	path := out
	if path == "" {
		path = res.FileName
	} else if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, res.FileName)
	}
	if err := os.WriteFile(path, res.Data, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}
