package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ericfisherdev/attentionhub/internal/config"
	"github.com/ericfisherdev/attentionhub/internal/domain/model"
	"github.com/ericfisherdev/attentionhub/internal/domain/port/driven"
)

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Manage organization settings",
	}

	var file string
	applyCmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply a YAML settings file",
		Long: `Apply a YAML settings file to the database. Sections that are absent
from the file leave the stored values unchanged. Repositories are named
owner/name and users by login.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sf, err := config.LoadSettingsFile(file)
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(a *app) error {
				summary, err := a.applySettings(cmd.Context(), sf)
				if err != nil {
					return err
				}
				for _, line := range summary.applied {
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", color.GreenString("applied"), line)
				}
				for _, name := range summary.unknown {
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s not found in snapshot\n", color.YellowString("skipped"), name)
				}
				return nil
			})
		},
	}
	applyCmd.Flags().StringVarP(&file, "file", "f", "", "Path to the settings YAML file")
	_ = applyCmd.MarkFlagRequired("file")

	cmd.AddCommand(applyCmd)
	return cmd
}

// applySummary reports what a settings file changed.
type applySummary struct {
	applied []string
	unknown []string // Logins and repository names missing from the snapshot.
}

// applySettings writes every section present in sf. Names that do not
// resolve are reported and skipped. Cached calendars and insights are dropped
// afterwards.
func (a *app) applySettings(ctx context.Context, sf *config.SettingsFile) (applySummary, error) {
	var summary applySummary

	if sf.Organization != nil {
		current, err := a.settings.GetOrganizationSettings(ctx)
		if err != nil {
			return summary, err
		}
		next := sf.Organization.ApplyScalars(current)
		if sf.Organization.ExcludedRepositories != nil {
			ids, err := a.resolveRepositories(ctx, sf.Organization.ExcludedRepositories, &summary)
			if err != nil {
				return summary, err
			}
			next.ExcludedRepositoryIDs = ids
		}
		if sf.Organization.ExcludedUsers != nil {
			ids, err := a.resolveLogins(ctx, sf.Organization.ExcludedUsers, &summary)
			if err != nil {
				return summary, err
			}
			next.ExcludedUserIDs = ids
		}
		if err := a.settings.SetOrganizationSettings(ctx, next); err != nil {
			return summary, err
		}
		summary.applied = append(summary.applied, "organization settings")
	}

	if sf.Thresholds != nil {
		current, err := a.thresholds.GetGlobalThresholds(ctx)
		if err != nil {
			return summary, err
		}
		if err := a.thresholds.SetGlobalThresholds(ctx, sf.Thresholds.MergeInto(current)); err != nil {
			return summary, err
		}
		summary.applied = append(summary.applied, "global thresholds")
	}

	if sf.Maintainers != nil {
		ids, err := a.resolveLogins(ctx, sf.Maintainers, &summary)
		if err != nil {
			return summary, err
		}
		if err := a.repos.SetOrganizationMaintainers(ctx, ids); err != nil {
			return summary, err
		}
		summary.applied = append(summary.applied, fmt.Sprintf("%d organization maintainers", len(ids)))
	}

	for _, section := range sf.Repositories {
		if err := a.applyRepository(ctx, section, &summary); err != nil {
			return summary, err
		}
	}

	for _, cal := range sf.Holidays {
		dates := cal.HolidayDates()
		if err := a.holidays.ReplaceCalendar(ctx, cal.Code, dates); err != nil {
			return summary, err
		}
		summary.applied = append(summary.applied, fmt.Sprintf("holiday calendar %s (%d dates)", strings.ToUpper(cal.Code), len(dates)))
	}

	for _, entry := range sf.Users {
		ids, err := a.resolveLogins(ctx, []string{entry.Login}, &summary)
		if err != nil {
			return summary, err
		}
		if len(ids) == 0 {
			continue
		}
		prefs := model.UserPreferences{
			UserID:               ids[0],
			Timezone:             entry.Timezone,
			HolidayCalendarCodes: entry.HolidayCalendars,
			HolidayDates:         entry.HolidayDates,
		}
		if err := a.prefs.SetPreferences(ctx, prefs); err != nil {
			return summary, err
		}
		summary.applied = append(summary.applied, "preferences for "+entry.Login)
	}

	a.holidayCache.InvalidateAll()
	a.insights.Invalidate()
	return summary, nil
}

func (a *app) applyRepository(ctx context.Context, section config.RepositorySection, summary *applySummary) error {
	ids, err := a.resolveRepositories(ctx, []string{section.Name}, summary)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	repoID := ids[0]

	if section.Maintainers != nil {
		userIDs, err := a.resolveLogins(ctx, section.Maintainers, summary)
		if err != nil {
			return err
		}
		if err := a.repos.SetRepositoryMaintainers(ctx, repoID, userIDs); err != nil {
			return err
		}
	}

	if section.Thresholds != nil {
		if err := a.thresholds.SetRepoThreshold(ctx, section.Thresholds.RepoThreshold(repoID)); err != nil {
			return err
		}
	}

	summary.applied = append(summary.applied, "repository "+section.Name)
	return nil
}

// resolveRepositories maps owner/name to ids in input order.
func (a *app) resolveRepositories(ctx context.Context, names []string, summary *applySummary) ([]int64, error) {
	ids := make([]int64, 0, len(names))
	for _, name := range names {
		repo, err := a.repos.GetByNameWithOwner(ctx, name)
		if errors.Is(err, driven.ErrRepoNotFound) {
			summary.unknown = append(summary.unknown, name)
			continue
		}
		if err != nil {
			return nil, err
		}
		ids = append(ids, repo.ID)
	}
	return ids, nil
}

// resolveLogins maps logins to user ids in input order.
func (a *app) resolveLogins(ctx context.Context, logins []string, summary *applySummary) ([]int64, error) {
	users, err := a.users.GetByLogins(ctx, logins)
	if err != nil {
		return nil, err
	}
	byLogin := make(map[string]int64, len(users))
	for _, u := range users {
		byLogin[strings.ToLower(u.Login)] = u.ID
	}

	ids := make([]int64, 0, len(logins))
	for _, login := range logins {
		id, ok := byLogin[strings.ToLower(strings.TrimSpace(login))]
		if !ok {
			summary.unknown = append(summary.unknown, login)
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
