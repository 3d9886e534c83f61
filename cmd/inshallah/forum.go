package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/inshallah-dev/inshallah/internal/sink"
)

var forumCmd = &cobra.Command{
	Use:   "forum",
	Short: "Append-only discussion topics shared with agents",
}

var forumPostCmd = &cobra.Command{
	Use:   "post <topic> <body>",
	Short: "Post a message to a topic",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		_, posts, _ := openStores()
		msg, err := posts.Post(args[0], args[1], actor())
		if err != nil {
			fatal(err)
		}
		if jsonOutput {
			emitJSON(msg)
			return
		}
		out.Line(fmt.Sprintf("posted to %s", msg.Topic), sink.StylePass)
	},
}

var forumReadCmd = &cobra.Command{
	Use:   "read <topic>",
	Short: "Read the last messages on a topic",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		_, posts, _ := openStores()
		limit, _ := cmd.Flags().GetInt("limit")
		msgs, err := posts.Read(args[0], limit)
		if err != nil {
			fatal(err)
		}
		if jsonOutput {
			emitJSON(msgs)
			return
		}
		if len(msgs) == 0 {
			out.Line("no messages", sink.StyleDim)
			return
		}
		for _, m := range msgs {
			stamp := time.Unix(m.CreatedAt, 0).Format("2006-01-02 15:04")
			out.Line(fmt.Sprintf("[%s] %s:", stamp, m.Author), sink.StyleAccent)
			out.Line(m.Body, sink.StyleNone)
		}
	},
}

var forumTopicsCmd = &cobra.Command{
	Use:   "topics [prefix]",
	Short: "List topics, most recent first",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		_, posts, _ := openStores()
		prefix := ""
		if len(args) == 1 {
			prefix = args[0]
		}
		topics, err := posts.Topics(prefix)
		if err != nil {
			fatal(err)
		}
		if jsonOutput {
			emitJSON(topics)
			return
		}
		if len(topics) == 0 {
			out.Line("no topics", sink.StyleDim)
			return
		}
		rows := make([][]string, 0, len(topics))
		for _, t := range topics {
			rows = append(rows, []string{
				t.Topic,
				fmt.Sprintf("%d msg(s)", t.Messages),
				time.Unix(t.LastAt, 0).Format("2006-01-02 15:04"),
			})
		}
		out.Table("", rows)
	},
}

func init() {
	forumReadCmd.Flags().Int("limit", 20, "Max messages to show (0 = all)")
	forumCmd.AddCommand(forumPostCmd)
	forumCmd.AddCommand(forumReadCmd)
	forumCmd.AddCommand(forumTopicsCmd)
	rootCmd.AddCommand(forumCmd)
}
