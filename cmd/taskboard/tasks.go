package main

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard/internal/domain"
	"github.com/phrazzld/taskboard/internal/store"
	"github.com/spf13/cobra"
)

func newTasksCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List, create and inspect tasks",
	}
	cmd.AddCommand(
		newTasksListCmd(opts),
		newTasksCreateCmd(opts),
		newTasksShowCmd(opts),
	)
	return cmd
}

func newTasksListCmd(opts *rootOptions) *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your tasks, newest first",
		Long: `List your tasks, newest first.

--search keeps tasks whose description or client contains the text,
ignoring case.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := opts.openClient(cmd)
			if err != nil {
				return err
			}
			defer client.close()
			return runTasksList(cmd, client, search)
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "Filter by description or client")
	return cmd
}

func runTasksList(cmd *cobra.Command, client *cliClient, search string) error {
	ctx, p, err := client.signedIn(cmd.Context())
	if err != nil {
		return err
	}
	tasks, err := client.tasks.ListTasks(ctx, p.UserID, search)
	if err != nil {
		return fmt.Errorf("failed to list tasks: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTaskList(tasks))
	return nil
}

// createFlags holds the raw `tasks create` flag values.
type createFlags struct {
	dateRequested    string
	taskCreator      string
	client           string
	description      string
	pageLink         string
	loginDetails     string
	priority         string
	deadline         string
	status           string
	notes            string
	clientDiscussion string
}

func (f createFlags) toInput() (domain.TaskInput, error) {
	in := domain.TaskInput{
		TaskCreator:      f.taskCreator,
		Client:           f.client,
		Description:      f.description,
		PageLink:         f.pageLink,
		LoginDetails:     f.loginDetails,
		Notes:            f.notes,
		ClientDiscussion: f.clientDiscussion,
	}

	var err error
	if in.DateRequested, err = domain.ParseDate("requested", f.dateRequested); err != nil {
		return in, err
	}
	if in.Deadline, err = domain.ParseDate("deadline", f.deadline); err != nil {
		return in, err
	}
	if f.priority != "" {
		if in.Priority, err = domain.ParsePriority(f.priority); err != nil {
			return in, err
		}
	}
	if f.status != "" {
		if in.Status, err = domain.ParseStatus(f.status); err != nil {
			return in, err
		}
	}
	return in, nil
}

func newTasksCreateCmd(opts *rootOptions) *cobra.Command {
	var f createFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task",
		Long: `Create a task owned by the signed-in user.

Examples:
  taskboard tasks create --client Acme --description "Fix checkout" --deadline 2026-11-01
  taskboard tasks create -c Acme -d "Audit SEO" --deadline 2026-11-15 -p High --status "In progress"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := f.toInput()
			if err != nil {
				return err
			}

			client, err := opts.openClient(cmd)
			if err != nil {
				return err
			}
			defer client.close()

			ctx, p, err := client.signedIn(cmd.Context())
			if err != nil {
				return err
			}
			task, err := client.tasks.CreateTask(ctx, p.UserID, in)
			if err != nil {
				return fmt.Errorf("failed to create task: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Task created")
			fmt.Fprintln(cmd.OutOrStdout(), renderTaskCard(task))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.client, "client", "c", "", "Client name (required)")
	flags.StringVarP(&f.description, "description", "d", "", "What needs doing (required)")
	flags.StringVar(&f.deadline, "deadline", "", "Deadline, YYYY-MM-DD (required)")
	flags.StringVarP(&f.priority, "priority", "p", "", "Low, Medium or High (default Medium)")
	flags.StringVar(&f.status, "status", "", `To do, In progress, Pending Review or Done (default "To do")`)
	flags.StringVar(&f.dateRequested, "requested", "", "Date requested, YYYY-MM-DD (default today)")
	flags.StringVar(&f.taskCreator, "creator", "", "Who asked for the task")
	flags.StringVar(&f.pageLink, "page-link", "", "URL of the page concerned")
	flags.StringVar(&f.loginDetails, "login-details", "", "Credentials notes for the page")
	flags.StringVar(&f.notes, "notes", "", "Free-form notes")
	flags.StringVar(&f.clientDiscussion, "discussion", "", "Notes from the client conversation")
	_ = cmd.MarkFlagRequired("client")
	_ = cmd.MarkFlagRequired("description")
	_ = cmd.MarkFlagRequired("deadline")
	return cmd
}

func newTasksShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show every field of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid task id %q", args[0])
			}

			client, err := opts.openClient(cmd)
			if err != nil {
				return err
			}
			defer client.close()

			ctx, p, err := client.signedIn(cmd.Context())
			if err != nil {
				return err
			}
			task, err := client.tasks.GetTask(ctx, p.UserID, id)
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("task %s not found", id)
			}
			if err != nil {
				return fmt.Errorf("failed to load task: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTaskDetail(task))
			return nil
		},
	}
}
