package cli

import (
	"fmt"
	"time"

	"example.com/photofeed/internal/feed"
	"github.com/spf13/cobra"
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Show the feed",
	Args:  cobra.NoArgs,
	RunE:  runFeed,
}

var likeCmd = &cobra.Command{
	Use:   "like <post-id>",
	Short: "Like a post",
	Long: `Like a post from the feed. Liking a post twice does nothing; there is no unlike.

Examples:
  photofeed like 6731f2c0a1`,
	Args: cobra.ExactArgs(1),
	RunE: runLike,
}

func init() {
	rootCmd.AddCommand(feedCmd)
	rootCmd.AddCommand(likeCmd)
}

func runFeed(cmd *cobra.Command, args []string) error {
	a, err := getApp(cmd.Context())
	if err != nil {
		return err
	}
	s := feed.New(a.client, a.session, a.events)
	posts, err := s.Load(cmd.Context())
	if err != nil {
		return err
	}
	return printFeed(s, len(posts))
}

func runLike(cmd *cobra.Command, args []string) error {
	a, err := getApp(cmd.Context())
	if err != nil {
		return err
	}
	s := feed.New(a.client, a.session, a.events)
	if _, err := s.Load(cmd.Context()); err != nil {
		return err
	}
	if err := s.ToggleLike(cmd.Context(), args[0]); err != nil {
		return err
	}
	if err := s.Err(); err != nil {
		// the like went through; only the refresh failed
		printError(err)
	}
	return printFeed(s, len(s.Posts()))
}

func printFeed(s *feed.Synchronizer, n int) error {
	posts := s.Posts()
	if jsonOut {
		type row struct {
			ID        string    `json:"id"`
			Username  string    `json:"username"`
			Caption   string    `json:"caption"`
			ImageURL  string    `json:"image_url"`
			Likes     int       `json:"likes"`
			LikeState string    `json:"like_state"`
			CreatedAt time.Time `json:"created_at"`
		}
		rows := make([]row, 0, len(posts))
		for _, p := range posts {
			rows = append(rows, row{
				ID:        p.ID,
				Username:  p.User.Username,
				Caption:   p.Caption,
				ImageURL:  p.ImageURL,
				Likes:     len(p.Likes),
				LikeState: s.LikeState(p.ID).String(),
				CreatedAt: p.CreatedAt,
			})
		}
		return printJSON(map[string]any{"posts": rows, "count": n})
	}

	if n == 0 {
		fmt.Fprintln(stdout, "No posts yet")
		return nil
	}
	w := newTable()
	printTableHeader(w, "ID", "USER", "CAPTION", "LIKES", "")
	for _, p := range posts {
		mark := ""
		if s.LikeState(p.ID) == feed.Liked {
			mark = "♥"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", p.ID, p.User.Username, truncate(p.Caption, 40), len(p.Likes), mark)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	printer.Fprintf(stdout, "%d posts\n", n)
	return nil
}
