package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/ssot/internal/cli/config"
	"github.com/leapstack-labs/ssot/internal/cli/output"
	"github.com/leapstack-labs/ssot/pkg/core"
	"github.com/spf13/cobra"
)

// DoctorOptions holds options for the doctor command.
type DoctorOptions struct {
	Format string // Output format: text, json
}

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	opts := &DoctorOptions{}
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, state and dataset endpoints",
		Long: `Check that the dashboard can run with the current configuration.

The doctor command reports:
- Configuration issues (session secret, mirrored datasets)
- State database health (migrations, stored snapshots)
- Every dataset endpoint (reachability, row count, filter columns)
- Health score (0-100)
- Actionable recommendations

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Run health check
  ssot doctor

  # Output as JSON
  ssot doctor --format json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, json")

	return cmd
}

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	Summary         DoctorSummary `json:"summary"`
	HealthChecks    []HealthCheck `json:"health_checks"`
	Score           int           `json:"score"`
	Recommendations []string      `json:"recommendations"`
	IssueCount      int           `json:"issue_count"`
}

// DoctorSummary contains overall statistics.
type DoctorSummary struct {
	Datasets  int `json:"datasets"`
	Reachable int `json:"reachable"`
	Rows      int `json:"rows"`
	Snapshots int `json:"snapshots"`
}

// HealthCheck represents a single health check result.
type HealthCheck struct {
	RuleID     string   `json:"rule_id"`
	Name       string   `json:"name"`
	Group      string   `json:"group"`
	Status     string   `json:"status"` // "pass", "warn", "error"
	IssueCount int      `json:"issue_count"`
	Details    []string `json:"details,omitempty"`
}

func runDoctor(cmd *cobra.Command, opts *DoctorOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	r := cmdCtx.Renderer

	// Override renderer if format flag is set
	if opts.Format != "" {
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(opts.Format))
	}

	doctorOutput := diagnose(cmd.Context(), cmdCtx)

	// Render based on mode
	effectiveMode := r.EffectiveMode()
	switch effectiveMode {
	case output.ModeJSON:
		return r.JSON(doctorOutput)
	case output.ModeMarkdown:
		return renderDoctorMarkdown(r, doctorOutput)
	default:
		return renderDoctorText(r, doctorOutput)
	}
}

func diagnose(ctx context.Context, cmdCtx *CommandContext) *DoctorOutput {
	cfg := cmdCtx.Cfg
	var (
		summary DoctorSummary
		checks  []HealthCheck
	)

	checks = append(checks, configChecks(cfg)...)

	version, verr := cmdCtx.Store.GetMigrationVersion()
	checks = append(checks, migrationCheck(version, verr))

	snapshots, serr := cmdCtx.Store.ListSnapshots(ctx)
	stored := make(map[core.DatasetID]bool, len(snapshots))
	for _, s := range snapshots {
		stored[s.Dataset] = true
	}
	summary.Snapshots = len(snapshots)
	checks = append(checks, snapshotCheck(cfg.MirrorIDs(), stored, serr))

	for _, id := range core.DatasetIDs() {
		spec, _ := cfg.DatasetSpec(id)
		start := time.Now()
		ds, err := cmdCtx.Cache.Get(ctx, id)
		cmdCtx.Logger.Debug("doctor fetched dataset", "dataset", id, "duration", time.Since(start), "error", err)

		summary.Datasets++
		if err == nil {
			summary.Reachable++
			summary.Rows += ds.Len()
		}
		checks = append(checks, datasetCheck(spec, ds, err))
	}

	// Sort health checks by group then by rule ID
	sort.SliceStable(checks, func(i, j int) bool {
		if checks[i].Group != checks[j].Group {
			return checks[i].Group < checks[j].Group
		}
		return checks[i].RuleID < checks[j].RuleID
	})

	issues := 0
	for _, c := range checks {
		issues += c.IssueCount
	}

	return &DoctorOutput{
		Summary:         summary,
		HealthChecks:    checks,
		Score:           calculateHealthScore(checks),
		Recommendations: generateRecommendations(checks),
		IssueCount:      issues,
	}
}

func configChecks(cfg *config.Config) []HealthCheck {
	secret := HealthCheck{RuleID: "CF01", Name: "Session secret configured", Group: "config", Status: "pass"}
	if cfg.GetUIConfig().SessionSecret == "" {
		secret.Status = "warn"
		secret.IssueCount = 1
		secret.Details = []string{"ui.session_secret is empty; dashboard sessions reset on every restart"}
	}

	mirror := HealthCheck{RuleID: "CF02", Name: "Mirrored datasets", Group: "config", Status: "pass"}
	if len(cfg.Cache.Mirror) == 0 {
		mirror.Status = "warn"
		mirror.IssueCount = 1
		mirror.Details = []string{"cache.mirror is empty; --offline has nothing to serve"}
	}
	return []HealthCheck{secret, mirror}
}

func migrationCheck(version int64, err error) HealthCheck {
	check := HealthCheck{RuleID: "ST01", Name: "State schema up to date", Group: "state", Status: "pass"}
	switch {
	case err != nil:
		check.Status = "error"
		check.IssueCount = 1
		check.Details = []string{err.Error()}
	case version == 0:
		check.Status = "error"
		check.IssueCount = 1
		check.Details = []string{"no migrations applied"}
	}
	return check
}

func snapshotCheck(mirror []core.DatasetID, stored map[core.DatasetID]bool, err error) HealthCheck {
	check := HealthCheck{RuleID: "ST02", Name: "Snapshots stored", Group: "state", Status: "pass"}
	if err != nil {
		check.Status = "error"
		check.IssueCount = 1
		check.Details = []string{err.Error()}
		return check
	}
	for _, id := range mirror {
		if !stored[id] {
			check.Details = append(check.Details, fmt.Sprintf("no snapshot of %s yet", id))
		}
	}
	if len(check.Details) > 0 {
		check.Status = "warn"
		check.IssueCount = len(check.Details)
	}
	return check
}

// datasetCheck reports whether a dataset loads and whether its filter
// columns are present.
func datasetCheck(spec core.DatasetSpec, ds *core.Dataset, err error) HealthCheck {
	check := HealthCheck{
		RuleID: "DS:" + string(spec.ID),
		Name:   spec.Label,
		Group:  "datasets",
		Status: "pass",
	}
	if err != nil {
		check.Status = "error"
		check.IssueCount = 1
		check.Details = []string{err.Error()}
		return check
	}
	if ds.Len() == 0 {
		check.Status = "warn"
		check.IssueCount = 1
		check.Details = []string{"endpoint returned no rows"}
		return check
	}

	columns := make(map[string]bool, len(ds.Columns))
	for _, c := range ds.Columns {
		columns[c] = true
	}
	for _, d := range spec.Dimensions {
		if !columns[d.Column] {
			check.Details = append(check.Details, fmt.Sprintf("%s filter column %s is missing", d.Label, d.Column))
		}
	}
	if len(check.Details) > 0 {
		check.Status = "warn"
		check.IssueCount = len(check.Details)
	}
	return check
}

// calculateHealthScore computes a health score from 0-100. Errors count
// double.
func calculateHealthScore(checks []HealthCheck) int {
	score := 100
	for _, check := range checks {
		switch check.Status {
		case "error":
			score -= 20
		case "warn":
			score -= 5 * check.IssueCount
		}
	}
	return max(0, min(100, score))
}

// generateRecommendations creates actionable recommendations based on findings.
func generateRecommendations(checks []HealthCheck) []string {
	var recommendations []string
	seen := make(map[string]bool)

	for _, check := range checks {
		if check.IssueCount == 0 {
			continue
		}

		rec := getRecommendation(check)
		if rec != "" && !seen[rec] {
			recommendations = append(recommendations, rec)
			seen[rec] = true
		}
	}

	// Limit to top 5 recommendations
	if len(recommendations) > 5 {
		recommendations = recommendations[:5]
	}

	return recommendations
}

// getRecommendation returns a recommendation for a specific check.
func getRecommendation(check HealthCheck) string {
	switch {
	case check.RuleID == "CF01":
		return "Set ui.session_secret so dashboard sessions survive restarts"
	case check.RuleID == "CF02":
		return "List datasets under cache.mirror to enable offline mode"
	case check.RuleID == "ST01":
		return "Remove or repair the state database; it is recreated on the next run"
	case check.RuleID == "ST02":
		return "Fetch mirrored datasets once (ssot show <dataset>) to store snapshots"
	case strings.HasPrefix(check.RuleID, "DS:") && check.Status == "error":
		return "Check base_url and datasets.<id>.url, or run with --offline"
	case strings.HasPrefix(check.RuleID, "DS:"):
		return "Set datasets.<id>.channel_column when a backend renames a filter column"
	default:
		return ""
	}
}

func renderDoctorText(r *output.Renderer, out *DoctorOutput) error {
	styles := r.Styles()

	// Header
	r.Println("")
	r.Println(styles.Header1.Render("SSOT Health Report"))
	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	r.Println("")

	r.Println(styles.Header2.Render("Summary"))
	r.Printf("   Datasets: %d | Reachable: %d | Rows: %d | Snapshots: %d\n",
		out.Summary.Datasets, out.Summary.Reachable, out.Summary.Rows, out.Summary.Snapshots)
	r.Println("")

	// Health Checks grouped by category
	r.Println(styles.Header2.Render("Health Checks"))
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println(styles.Bold.Render("   " + titleCaser.String(currentGroup)))
			r.Println(styles.Muted.Render("   " + strings.Repeat("-", 40)))
		}

		icon := styles.StatusSuccess.String()
		switch check.Status {
		case "warn":
			icon = styles.Warning.Render("!")
		case "error":
			icon = styles.StatusFailed.String()
		}

		status := fmt.Sprintf("%s %s: %s", icon, check.RuleID, check.Name)
		if check.IssueCount > 0 {
			status += fmt.Sprintf(" (%d issues)", check.IssueCount)
		}
		r.Println("   " + status)

		// Show first 3 details for issues
		for i, detail := range check.Details {
			if i >= 3 {
				r.Println(styles.Muted.Render(fmt.Sprintf("       ... and %d more", len(check.Details)-3)))
				break
			}
			r.Println(styles.Muted.Render("       - " + detail))
		}
	}
	r.Println("")

	// Health Score
	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	scoreStyle := styles.Success
	if out.Score < 70 {
		scoreStyle = styles.Warning
	}
	if out.Score < 50 {
		scoreStyle = styles.Error
	}
	r.Printf("   Health Score: %s\n", scoreStyle.Render(fmt.Sprintf("%d/100", out.Score)))
	r.Println("")

	if len(out.Recommendations) > 0 {
		r.Println(styles.Header2.Render("Recommendations"))
		for i, rec := range out.Recommendations {
			r.Printf("   %d. %s\n", i+1, rec)
		}
		r.Println("")
	}

	return nil
}

func renderDoctorMarkdown(r *output.Renderer, out *DoctorOutput) error {
	r.Println("# SSOT Health Report")
	r.Println("")

	r.Println("## Summary")
	r.Println("")
	r.Printf("- **Datasets**: %d\n", out.Summary.Datasets)
	r.Printf("- **Reachable**: %d\n", out.Summary.Reachable)
	r.Printf("- **Rows**: %d\n", out.Summary.Rows)
	r.Printf("- **Snapshots**: %d\n", out.Summary.Snapshots)
	r.Println("")

	r.Println("## Health Checks")
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println("### " + titleCaser.String(currentGroup))
			r.Println("")
		}

		status := "PASS"
		switch check.Status {
		case "warn":
			status = "WARN"
		case "error":
			status = "ERROR"
		}

		r.Printf("- **[%s]** %s: %s", status, check.RuleID, check.Name)
		if check.IssueCount > 0 {
			r.Printf(" (%d issues)", check.IssueCount)
		}
		r.Println("")

		for _, detail := range check.Details {
			r.Printf("  - %s\n", detail)
		}
	}
	r.Println("")

	r.Println("## Health Score")
	r.Println("")
	r.Printf("**%d/100**\n", out.Score)
	r.Println("")

	if len(out.Recommendations) > 0 {
		r.Println("## Recommendations")
		r.Println("")
		for i, rec := range out.Recommendations {
			r.Printf("%d. %s\n", i+1, rec)
		}
		r.Println("")
	}

	return nil
}
