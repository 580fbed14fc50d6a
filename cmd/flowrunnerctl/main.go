// Command flowrunnerctl is a thin CLI client exercising a flowrunnerd
// instance over the remote backend (pkg/flowrunner, internal/remote).
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/cuemby/flowrunner/pkg/flowrunner"
	"github.com/spf13/cobra"
)

var addr string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "flowrunnerctl",
	Short: "flowrunnerctl drives a flowrunnerd instance over gRPC",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&addr, "addr", "127.0.0.1:7700", "flowrunnerd address")
	rootCmd.AddCommand(queueCmd, taskCmd)
}

func withConnection(fn func(c *flowrunner.Client, ql flowrunner.Handle) error) error {
	c := flowrunner.New()
	conn, err := c.ConnectRemote(addr)
	if err != nil {
		return err
	}
	defer c.Disconnect(conn)

	ql, err := c.QueueList(conn)
	if err != nil {
		return err
	}
	defer c.ReleaseQueueList(ql)

	return fn(c, ql)
}

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "manage queues",
}

var queueCreateCmd = &cobra.Command{
	Use:  "create <name>",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withConnection(func(c *flowrunner.Client, ql flowrunner.Handle) error {
			return c.CreateQueue(ql, args[0])
		})
	},
}

var queueDeleteCmd = &cobra.Command{
	Use:  "delete <name>",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withConnection(func(c *flowrunner.Client, ql flowrunner.Handle) error {
			return c.DeleteQueue(ql, args[0])
		})
	},
}

var queueRenameCmd = &cobra.Command{
	Use:  "rename <old> <new>",
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withConnection(func(c *flowrunner.Client, ql flowrunner.Handle) error {
			return c.RenameQueue(ql, args[0], args[1])
		})
	},
}

var queueListCmd = &cobra.Command{
	Use:  "list",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withConnection(func(c *flowrunner.Client, ql flowrunner.Handle) error {
			names, err := c.ListQueues(ql)
			if err != nil {
				return err
			}
			fmt.Println(strings.Join(names, "\n"))
			return nil
		})
	},
}

func init() {
	queueCmd.AddCommand(queueCreateCmd, queueDeleteCmd, queueRenameCmd, queueListCmd)
}

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "manage tasks within a queue",
}

func withQueue(name string, fn func(c *flowrunner.Client, q flowrunner.Handle) error) error {
	return withConnection(func(c *flowrunner.Client, ql flowrunner.Handle) error {
		q, err := c.Queue(ql, name)
		if err != nil {
			return err
		}
		defer c.ReleaseQueue(q)
		return fn(c, q)
	})
}

var taskAddCmd = &cobra.Command{
	Use:  "add <queue> <exec> [args...]",
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		workDir, _ := cmd.Flags().GetString("work-dir")
		return withQueue(args[0], func(c *flowrunner.Client, q flowrunner.Handle) error {
			id, err := c.AddTask(q, args[1], args[2:], workDir)
			if err != nil {
				return err
			}
			fmt.Println(id)
			return nil
		})
	},
}

var taskRemoveCmd = &cobra.Command{
	Use:  "remove <queue> <id>",
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[1])
		if err != nil {
			return err
		}
		return withQueue(args[0], func(c *flowrunner.Client, q flowrunner.Handle) error {
			return c.RemoveTask(q, id)
		})
	},
}

var taskStartCmd = &cobra.Command{
	Use:  "start <queue>",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withQueue(args[0], func(c *flowrunner.Client, q flowrunner.Handle) error {
			return c.Start(q)
		})
	},
}

var taskStopCmd = &cobra.Command{
	Use:  "stop <queue>",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withQueue(args[0], func(c *flowrunner.Client, q flowrunner.Handle) error {
			return c.Stop(q)
		})
	},
}

var taskStatusCmd = &cobra.Command{
	Use:  "status <queue>",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withQueue(args[0], func(c *flowrunner.Client, q flowrunner.Handle) error {
			running, err := c.IsRunning(q)
			if err != nil {
				return err
			}
			pending, err := c.ListPending(q)
			if err != nil {
				return err
			}
			finished, err := c.ListFinished(q)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"running":  running,
				"pending":  pending,
				"finished": finished,
			})
		})
	},
}

var taskOutputCmd = &cobra.Command{
	Use:  "output <queue>",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withQueue(args[0], func(c *flowrunner.Client, q flowrunner.Handle) error {
			chunks, err := c.ReadCurrentOutput(q)
			if err != nil {
				return err
			}
			for _, chunk := range chunks {
				os.Stdout.Write(chunk)
			}
			return nil
		})
	},
}

func init() {
	taskAddCmd.Flags().String("work-dir", "", "working directory for the new task")
	taskCmd.AddCommand(taskAddCmd, taskRemoveCmd, taskStartCmd, taskStopCmd, taskStatusCmd, taskOutputCmd)
}

func parseID(s string) (uint64, error) {
	var id uint64
	_, err := fmt.Sscanf(s, "%d", &id)
	return id, err
}
