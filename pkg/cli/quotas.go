package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/platinummonkey/keyquota/pkg/quotas"
)

// addClientFlags registers the flags shared by every API command
func addClientFlags(fs *flag.FlagSet) {
	endpoint := os.Getenv("KEYQUOTA_ENDPOINT")
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	fs.String("endpoint", endpoint, "keyquota server URL")
	fs.Duration("timeout", 10*time.Second, "Request timeout")
}

func clientFromFlags(fs *flag.FlagSet) *Client {
	timeout, err := time.ParseDuration(fs.Lookup("timeout").Value.String())
	if err != nil {
		timeout = 10 * time.Second
	}
	return NewClient(fs.Lookup("endpoint").Value.String(), timeout)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newSetCommand() *Command {
	cmd := &Command{
		Name:        "set",
		Description: "Set the quotas of a project",
		Flags:       flag.NewFlagSet("set", flag.ContinueOnError),
		Run:         runSet,
	}

	addClientFlags(cmd.Flags)
	cmd.Flags.String("project", "", "Project ID")
	for _, r := range quotas.Resources() {
		cmd.Flags.Int(string(r), quotas.UnlimitedValue, fmt.Sprintf("Quota for %s (-1 is unlimited)", r))
	}

	return cmd
}

func runSet(args []string) error {
	cmd := newSetCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	project := cmd.Flags.Lookup("project").Value.String()
	if project == "" {
		return fmt.Errorf("project is required")
	}

	// only resources given on the command line are sent; the rest fall back to defaults
	values := make(map[quotas.ResourceType]int)
	var parseErr error
	cmd.Flags.Visit(func(f *flag.Flag) {
		r := quotas.ResourceType(f.Name)
		if !r.Valid() {
			return
		}
		v, err := strconv.Atoi(f.Value.String())
		if err != nil && parseErr == nil {
			parseErr = fmt.Errorf("invalid value for %s: %w", f.Name, err)
		}
		values[r] = v
	})
	if parseErr != nil {
		return parseErr
	}

	client := clientFromFlags(cmd.Flags)
	if err := client.SetProjectQuotas(context.Background(), project, values); err != nil {
		return fmt.Errorf("failed to set quotas: %w", err)
	}

	fmt.Fprintf(stdout, "Successfully set quotas for project %s\n", project)
	return nil
}

func newGetCommand() *Command {
	cmd := &Command{
		Name:        "get",
		Description: "Show the configured quotas of a project",
		Flags:       flag.NewFlagSet("get", flag.ContinueOnError),
		Run:         runGet,
	}

	addClientFlags(cmd.Flags)
	cmd.Flags.String("project", "", "Project ID")

	return cmd
}

func runGet(args []string) error {
	cmd := newGetCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	project := cmd.Flags.Lookup("project").Value.String()
	if project == "" {
		return fmt.Errorf("project is required")
	}

	pq, err := clientFromFlags(cmd.Flags).GetProjectQuotas(context.Background(), project)
	if err != nil {
		return fmt.Errorf("failed to get quotas: %w", err)
	}
	return printJSON(map[string]interface{}{"project_quotas": pq})
}

func newListCommand() *Command {
	cmd := &Command{
		Name:        "list",
		Description: "List projects with configured quotas",
		Flags:       flag.NewFlagSet("list", flag.ContinueOnError),
		Run:         runList,
	}

	addClientFlags(cmd.Flags)
	cmd.Flags.Int("offset", 0, "Number of records to skip")
	cmd.Flags.Int("limit", quotas.DefaultPageLimit, "Maximum number of records to return")

	return cmd
}

func runList(args []string) error {
	cmd := newListCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	offset, _ := strconv.Atoi(cmd.Flags.Lookup("offset").Value.String())
	limit, _ := strconv.Atoi(cmd.Flags.Lookup("limit").Value.String())

	page, err := clientFromFlags(cmd.Flags).ListProjectQuotas(context.Background(), offset, limit)
	if err != nil {
		return fmt.Errorf("failed to list quotas: %w", err)
	}
	return printJSON(page)
}

func newDeleteCommand() *Command {
	cmd := &Command{
		Name:        "delete",
		Description: "Delete the quotas of a project",
		Flags:       flag.NewFlagSet("delete", flag.ContinueOnError),
		Run:         runDelete,
	}

	addClientFlags(cmd.Flags)
	cmd.Flags.String("project", "", "Project ID")

	return cmd
}

func runDelete(args []string) error {
	cmd := newDeleteCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	project := cmd.Flags.Lookup("project").Value.String()
	if project == "" {
		return fmt.Errorf("project is required")
	}

	if err := clientFromFlags(cmd.Flags).DeleteProjectQuotas(context.Background(), project); err != nil {
		return fmt.Errorf("failed to delete quotas: %w", err)
	}

	fmt.Fprintf(stdout, "Successfully deleted quotas for project %s\n", project)
	return nil
}

func newEffectiveCommand() *Command {
	cmd := &Command{
		Name:        "effective",
		Description: "Show the effective quotas of a project",
		Flags:       flag.NewFlagSet("effective", flag.ContinueOnError),
		Run:         runEffective,
	}

	addClientFlags(cmd.Flags)
	cmd.Flags.String("project", "", "Project ID")

	return cmd
}

func runEffective(args []string) error {
	cmd := newEffectiveCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	project := cmd.Flags.Lookup("project").Value.String()
	if project == "" {
		return fmt.Errorf("project is required")
	}

	eq, err := clientFromFlags(cmd.Flags).EffectiveQuotas(context.Background(), project)
	if err != nil {
		return fmt.Errorf("failed to get effective quotas: %w", err)
	}
	return printJSON(map[string]interface{}{"quotas": eq})
}
