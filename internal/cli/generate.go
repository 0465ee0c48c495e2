package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/journey-copilot/journey-copilot/internal/prompt"
	"github.com/journey-copilot/journey-copilot/internal/session"
	"github.com/journey-copilot/journey-copilot/internal/store"
)

type generateFlags struct {
	platform   string
	sampleSize sampleSizeFlags
	raw        bool

	emailPlatform  string
	smsPlatform    string
	pushPlatform   string
	teamSize       string
	monthlyEmails  int
	monthlyRevenue int
	challenges     []string

	competitor string
	priorities []string

	dataSources []string
	channels    []string
}

// inputs collects the extras the category needs from the flags.
func (f *generateFlags) inputs(c prompt.Category) (session.Inputs, error) {
	in := session.Inputs{Platform: f.platform}

	switch c {
	case prompt.ABTestStrategy:
		if f.sampleSize.baseRate == 0 && f.sampleSize.lift == 0 {
			break
		}
		tc, res, err := f.sampleSize.estimate()
		if err != nil {
			return in, err
		}
		in.SampleSize = &prompt.SampleSize{Config: tc, Result: res}

	case prompt.BusinessImpact:
		team := 0
		if f.teamSize != "" {
			n, err := strconv.Atoi(f.teamSize)
			if err != nil {
				return in, fmt.Errorf("invalid --team-size %q: %w", f.teamSize, err)
			}
			team = n
		}
		in.Business = &prompt.BusinessProfile{
			EmailPlatform:  f.emailPlatform,
			SMSPlatform:    f.smsPlatform,
			PushPlatform:   f.pushPlatform,
			TeamSize:       team,
			MonthlyEmails:  f.monthlyEmails,
			MonthlyRevenue: f.monthlyRevenue,
			Challenges:     f.challenges,
		}

	case prompt.CompetitivePositioning:
		in.Competitive = &prompt.CompetitiveSituation{
			Competitor: f.competitor,
			Priorities: f.priorities,
		}

	case prompt.IntegrationAnalysis:
		in.Integration = &prompt.IntegrationProfile{
			DataSources: f.dataSources,
			Challenges:  f.challenges,
			Channels:    f.channels,
			TeamSize:    f.teamSize,
		}
	}
	return in, nil
}

func newGenerateCmd() *cobra.Command {
	var flags generateFlags

	names := make([]string, len(prompt.Categories))
	for i, c := range prompt.Categories {
		names[i] = string(c)
	}

	cmd := &cobra.Command{
		Use:   "generate <category>",
		Short: "Ask the model for recommendations on the active session",
		Long: `Build a prompt from the active session and send it to the configured model.
A successful reply replaces every earlier response; a failed one clears only
its own category. Every attempt is kept in the generation history.

Categories:
  ` + strings.Join(names, "\n  ") + `

Examples:
  jcp generate event-suggestion
  jcp generate ab-test-strategy --test-type "Push Timing" --base-rate 2.5 --lift 0.5
  jcp generate business-impact --email-platform Mailchimp --sms-platform Twilio \
      --team-size 6 --monthly-revenue 500000 --challenge "Data silos"
  jcp generate competitive-positioning --competitor Braze --priority Cost
  jcp generate integration-analysis --data-source Shopify --channel Email \
      --challenge "Manual exports" --team-size "5-10"`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: names,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := prompt.ParseCategory(args[0])
			if err != nil {
				return err
			}
			in, err := flags.inputs(c)
			if err != nil {
				return err
			}

			return withSession(func(ctx context.Context, s *store.SQLiteStore, sess *session.Session) error {
				gen, err := newGenerator(ctx)
				if err != nil {
					return err
				}

				log := getLogger()
				log.Debug("generating",
					zap.String("session", sess.ID),
					zap.String("category", string(c)),
					zap.String("provider", gen.Name()),
				)

				g, genErr := sess.Generate(ctx, gen, c, in)
				if g != nil {
					if err := s.RecordGeneration(ctx, g); err != nil {
						log.Warn("failed to record generation", zap.String("session", sess.ID), zap.Error(err))
					}
				}
				if genErr != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), errorStyle.Render("Generation failed"))
					return genErr
				}

				text, _ := sess.Response(c)
				printResponse(cmd.OutOrStdout(), c.Title(), text, flags.raw)
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.platform, "platform", prompt.DefaultPlatform, "platform the recommendations are written for")
	f.BoolVar(&flags.raw, "raw", false, "print the reply without markdown rendering")
	flags.sampleSize.register(cmd)

	f.StringVar(&flags.emailPlatform, "email-platform", "", "current email platform (business-impact)")
	f.StringVar(&flags.smsPlatform, "sms-platform", "", "current SMS platform (business-impact)")
	f.StringVar(&flags.pushPlatform, "push-platform", "", "current push platform (business-impact)")
	f.StringVar(&flags.teamSize, "team-size", "", "marketing team size (business-impact, integration-analysis)")
	f.IntVar(&flags.monthlyEmails, "monthly-emails", 0, "emails sent per month (business-impact)")
	f.IntVar(&flags.monthlyRevenue, "monthly-revenue", 0, "monthly revenue in dollars (business-impact)")
	f.StringArrayVar(&flags.challenges, "challenge", nil, "a current challenge (repeatable)")

	f.StringVar(&flags.competitor, "competitor", "", "competing platform (competitive-positioning)")
	f.StringArrayVar(&flags.priorities, "priority", nil, "a buying priority (repeatable, competitive-positioning)")

	f.StringArrayVar(&flags.dataSources, "data-source", nil, "a data source to integrate (repeatable, integration-analysis)")
	f.StringArrayVar(&flags.channels, "channel", nil, "a channel in use (repeatable, integration-analysis)")

	return cmd
}
