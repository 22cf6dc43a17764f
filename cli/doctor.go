package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/cobra"

	"github.com/focusmcp/focusmcp/cli/helpers"
	"github.com/focusmcp/focusmcp/engine/omnifocus"
	"github.com/focusmcp/focusmcp/pkg/config"
	"github.com/focusmcp/focusmcp/pkg/logger"
	"github.com/focusmcp/focusmcp/pkg/version"
)

// StatusReader is the part of the OmniFocus service doctor needs.
type StatusReader interface {
	AppStatus(ctx context.Context) (*omnifocus.AppStatus, error)
}

// DoctorReport is what doctor prints.
type DoctorReport struct {
	Focusmcp      version.Info         `json:"focusmcp"`
	Command       string               `json:"command"`
	OmniFocus     *omnifocus.AppStatus `json:"omnifocus,omitempty"`
	MinAppVersion string               `json:"min_app_version,omitempty"`
	Compatible    bool                 `json:"compatible"`
	Problems      []string             `json:"problems,omitempty"`
}

func DoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that OmniFocus can be automated",
		Long: `Run a read-only status script against OmniFocus and check its version
against automation.min_app_version.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := config.FromContext(ctx)
			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			report := diagnose(ctx, cfg, a.omnifocus)
			if err := helpers.NewOutputWriter(cmd.OutOrStdout()).WriteData(report); err != nil {
				return err
			}
			return reportError(report)
		},
	}
	cmd.Flags().String("min-app-version", "", "Semver constraint the OmniFocus version must satisfy")
	return cmd
}

func diagnose(ctx context.Context, cfg *config.Config, status StatusReader) *DoctorReport {
	log := logger.FromContext(ctx)
	report := &DoctorReport{
		Focusmcp:      version.Get(),
		Command:       cfg.Automation.Command,
		MinAppVersion: cfg.Automation.MinAppVersion,
	}
	app, err := status.AppStatus(ctx)
	if err != nil {
		log.Debug("Status script failed", "error", err)
		report.Problems = append(report.Problems, fmt.Sprintf("cannot reach OmniFocus: %v", err))
		return report
	}
	report.OmniFocus = app
	if err := checkAppVersion(app.Version, cfg.Automation.MinAppVersion); err != nil {
		report.Problems = append(report.Problems, err.Error())
		return report
	}
	report.Compatible = true
	return report
}

// checkAppVersion accepts any version when constraint is empty.
func checkAppVersion(appVersion, constraint string) error {
	if constraint == "" {
		return nil
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return fmt.Errorf("invalid min_app_version %q: %w", constraint, err)
	}
	v, err := semver.NewVersion(appVersion)
	if err != nil {
		return fmt.Errorf("unrecognized OmniFocus version %q: %w", appVersion, err)
	}
	if ok, errs := c.Validate(v); !ok {
		msg := fmt.Sprintf("OmniFocus %s does not satisfy %s", v, constraint)
		if len(errs) > 0 {
			msg = fmt.Sprintf("%s: %v", msg, errs[0])
		}
		return errors.New(msg)
	}
	return nil
}

func reportError(report *DoctorReport) error {
	if report.Compatible {
		return nil
	}
	code := helpers.CodeVersionTooOld
	if report.OmniFocus == nil {
		code = helpers.CodeUnavailable
	}
	msg := "doctor found problems"
	if len(report.Problems) > 0 {
		msg = report.Problems[0]
	}
	return helpers.NewCliError(code, msg).WithContext("problems", report.Problems)
}
