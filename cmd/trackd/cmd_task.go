package main

import (
	"fmt"
	"strings"

	"trackd/pkg/taskqueue"

	"github.com/spf13/cobra"
)

// newTaskCmd creates the "trackd task" command group.
func newTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage the shared task queue",
	}

	cmd.AddCommand(
		newTaskAddCmd(),
		newTaskListCmd(),
		newTaskStartCmd(),
		newTaskDoneCmd(),
		newTaskCancelCmd(),
	)

	return cmd
}

// openQueue loads the task queue from the resolved paths.
func openQueue() (*taskqueue.Queue, error) {
	paths, err := ResolvePaths()
	if err != nil {
		return nil, fmt.Errorf("resolve paths: %w", err)
	}
	return taskqueue.Open(paths.TasksPath)
}

func newTaskAddCmd() *cobra.Command {
	var (
		description string
		priority    string
		agent       string
		tags        []string
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task to the queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := openQueue()
			if err != nil {
				return err
			}
			id, err := q.Add(args[0], description, priority, agent, tags)
			if err != nil {
				return err
			}
			if err := q.Save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "longer task description")
	cmd.Flags().StringVar(&priority, "priority", "normal", "urgent, high, normal, or low")
	cmd.Flags().StringVar(&agent, "agent", "main", "agent the task is assigned to")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tags (repeatable)")

	return cmd
}

func newTaskListCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := openQueue()
			if err != nil {
				return err
			}

			tasks := q.Pending()
			if all {
				tasks = q.All()
			}

			w := cmd.OutOrStdout()
			if len(tasks) == 0 {
				fmt.Fprintln(w, "No tasks")
				return nil
			}
			for _, t := range tasks {
				line := fmt.Sprintf("%s  [%s/%s]  %s  (%s)", t.ID, t.Status, t.Priority, t.Title, t.Agent)
				if len(t.Tags) > 0 {
					line += "  #" + strings.Join(t.Tags, " #")
				}
				fmt.Fprintln(w, line)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include finished tasks")

	return cmd
}

func newTaskStartCmd() *cobra.Command {
	return newTaskTransitionCmd("start", "Mark a task in progress", func(q *taskqueue.Queue, id string) error {
		return q.Start(id)
	})
}

func newTaskDoneCmd() *cobra.Command {
	return newTaskTransitionCmd("done", "Mark a task completed", func(q *taskqueue.Queue, id string) error {
		return q.Complete(id)
	})
}

func newTaskCancelCmd() *cobra.Command {
	return newTaskTransitionCmd("cancel", "Cancel a task", func(q *taskqueue.Queue, id string) error {
		return q.Cancel(id)
	})
}

// newTaskTransitionCmd builds the shared shape of the start/done/cancel
// subcommands.
func newTaskTransitionCmd(use, short string, transition func(*taskqueue.Queue, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <task-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := openQueue()
			if err != nil {
				return err
			}
			if err := transition(q, args[0]); err != nil {
				return err
			}
			if err := q.Save(); err != nil {
				return err
			}
			task, _ := q.Get(args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", task.ID, task.Status)
			return nil
		},
	}
}
