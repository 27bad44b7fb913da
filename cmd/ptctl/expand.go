package main

import (
	"fmt"
	"io"
	"ptcoach/pt-server/internal/domain"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newExpandCmd() *cobra.Command {
	var microcycle []int
	var weeks int
	var start string

	cmd := &cobra.Command{
		Use:     "expand",
		Short:   "Print the workouts a microcycle expands into, without touching the database",
		Example: "  ptctl expand --microcycle 0,1,-1,0,1,-1,-1 --weeks 2 --start 2025-06-16",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// offline: no config needed
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var startDate domain.Date
			if start == "" {
				startDate = domain.NextMonday(domain.DateOf(time.Now()))
			} else {
				parsed, err := domain.ParseDate(start)
				if err != nil {
					return err
				}
				startDate = parsed
			}
			return renderExpansion(cmd.OutOrStdout(), microcycle, startDate, weeks)
		},
	}
	cmd.Flags().IntSliceVar(&microcycle, "microcycle", nil, "template index per day, -1 for rest")
	cmd.Flags().IntVar(&weeks, "weeks", 1, "number of weeks to expand")
	cmd.Flags().StringVar(&start, "start", "", "first day (YYYY-MM-DD), next Monday by default")
	_ = cmd.MarkFlagRequired("microcycle")
	return cmd
}

// renderExpansion prints one line per generated workout: date, weekday and template index.
func renderExpansion(w io.Writer, microcycle []int, start domain.Date, weeks int) error {
	templateCount := 0
	for _, idx := range microcycle {
		templateCount = max(templateCount, idx+1)
	}
	templateIDs := make([]primitive.ObjectID, templateCount)
	position := make(map[primitive.ObjectID]int, templateCount)
	for i := range templateIDs {
		templateIDs[i] = primitive.NewObjectID()
		position[templateIDs[i]] = i
	}

	schedule, err := domain.BuildSchedule(microcycle, templateIDs)
	if err != nil {
		return err
	}
	workouts, err := domain.ExpandMicrocycle(schedule, start, weeks)
	if err != nil {
		return err
	}

	var b strings.Builder
	for _, wo := range workouts {
		b.WriteString(wo.Date.String())
		b.WriteString(" ")
		b.WriteString(wo.Date.Weekday().String()[:3])
		b.WriteString(" T")
		b.WriteString(strconv.Itoa(position[*wo.TemplateID]))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "%d workouts over %d weeks\n", len(workouts), weeks)
	_, err = io.WriteString(w, b.String())
	return err
}
