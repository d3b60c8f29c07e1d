package cli

import (
	"CommentUI/internal/config"
	"CommentUI/internal/models"
	"CommentUI/internal/repository"
	"CommentUI/internal/service"
	"CommentUI/internal/web"
	"CommentUI/pkg/logger"
	"fmt"
	"github.com/spf13/cobra"
	"io"
	"strings"
)

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the comment tree",
		RunE:  runList,
	}
}

func runList(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile, envFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log, err := logger.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	repo, err := newRepository(cfg, log)
	if err != nil {
		return err
	}
	raw, err := repo.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("%s: %w", repository.Message(err), err)
	}
	comments, err := service.Normalize(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", repository.Message(err), err)
	}

	out := cmd.OutOrStdout()
	if len(comments) == 0 {
		fmt.Fprintln(out, "No comments yet.")
		return nil
	}
	fmt.Fprintf(out, "Comments (%d)\n", service.Count(comments))
	printTree(out, comments, 0)
	return nil
}

func printTree(w io.Writer, comments []*models.Comment, depth int) {
	for _, c := range comments {
		fmt.Fprintf(w, "%s- [%s] %s: %s (%s, %d likes)\n",
			strings.Repeat("  ", depth), c.ID, c.Author, c.Text, web.FormatDate(c.Date), c.Likes)
		if c.Image != "" {
			fmt.Fprintf(w, "%s  image: %s\n", strings.Repeat("  ", depth), c.Image)
		}
		printTree(w, c.Replies, depth+1)
	}
}
