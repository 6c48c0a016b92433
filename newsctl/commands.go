package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/DeafMist/newsdesk/internal/aggregator"
	"github.com/DeafMist/newsdesk/internal/newsapi"
	"github.com/DeafMist/newsdesk/internal/planner"
)

func newPlanCmd() *cobra.Command {
	var location, category string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the primary and fallback NewsAPI requests for a lookup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printPlan(cmd.OutOrStdout(), location, category)
		},
	}
	cmd.Flags().StringVar(&location, "location", "World", "location selector (World, India, Bangalore)")
	cmd.Flags().StringVar(&category, "category", "general", "category selector")
	return cmd
}

func printPlan(w io.Writer, location, category string) error {
	primary, _ := planner.Plan(location, category)
	fallback, ok := planner.Fallback(location, category)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "class:\t%s\n", planner.Classify(location))
	fmt.Fprintf(tw, "primary:\t%s\n", primary)
	if ok {
		fmt.Fprintf(tw, "fallback:\t%s\n", fallback)
	} else {
		fmt.Fprintf(tw, "fallback:\tnone\n")
	}
	return tw.Flush()
}

func newFetchCmd(d deps) *cobra.Command {
	var location, category string

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Run one aggregated lookup and print the JSON payload",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := commandLogger(cmd)

			provider, err := d.provider(log)
			if err != nil {
				return err
			}
			store, err := d.store(cmd.Context(), log)
			if err != nil {
				return err
			}
			if closer, ok := store.(io.Closer); ok {
				defer closer.Close()
			}

			svc := aggregator.New(provider, store, aggregator.WithLogger(log))
			res, err := svc.GetNews(cmd.Context(), category, location)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if encErr := enc.Encode(aggregator.Payload(res, err)); encErr != nil {
				return encErr
			}
			return err
		},
	}
	cmd.Flags().StringVar(&location, "location", "World", "location selector")
	cmd.Flags().StringVar(&category, "category", "general", "category selector")
	cmd.Flags().BoolP("verbose", "v", false, "log pipeline activity to stderr")
	return cmd
}

func newProbeCmd(d deps) *cobra.Command {
	var (
		country    string
		categories []string
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Count top headlines per category for a country, bypassing the cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			provider, err := d.provider(commandLogger(cmd))
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CATEGORY\tARTICLES\tFIRST TITLE")
			for _, category := range categories {
				category = strings.TrimSpace(category)
				if category == "" {
					continue
				}
				req := newsapi.NewRequest(newsapi.Headlines,
					newsapi.P(newsapi.FieldCountry, country),
					newsapi.P(newsapi.FieldCategory, category),
				)

				ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
				articles, err := provider.Search(ctx, req)
				cancel()
				if err != nil {
					fmt.Fprintf(tw, "%s\terror\t%v\n", category, err)
					continue
				}

				first := "-"
				if len(articles) > 0 && articles[0].Title != nil {
					first = *articles[0].Title
				}
				fmt.Fprintf(tw, "%s\t%d\t%s\n", category, len(articles), first)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&country, "country", "in", "two-letter country code")
	cmd.Flags().StringSliceVar(&categories, "categories", []string{"general", "technology", "business"}, "categories to probe")
	cmd.Flags().DurationVar(&timeout, "timeout", newsapi.DefaultTimeout, "per-request timeout")
	cmd.Flags().BoolP("verbose", "v", false, "log provider activity to stderr")
	return cmd
}
