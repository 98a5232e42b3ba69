package cli

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"example.com/photofeed/internal/api"
	"example.com/photofeed/internal/models"
	"example.com/photofeed/internal/notifications"
	"example.com/photofeed/internal/posts"
	"example.com/photofeed/internal/profile"
	"example.com/photofeed/internal/users"
	"github.com/spf13/cobra"
)

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Show notifications, newest first",
	Args:  cobra.NoArgs,
	RunE:  runNotifications,
}

var usersCmd = &cobra.Command{
	Use:   "users [query]",
	Short: "Search users by username or email",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runUsers,
}

var profileCmd = &cobra.Command{
	Use:   "profile [user-id]",
	Short: "Show a profile (yours when no id is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runProfile,
}

var profileEditCmd = &cobra.Command{
	Use:   "profile-edit",
	Short: "Edit your profile",
	Long: `Edit your username and description, and optionally upload a new picture.

Examples:
  photofeed profile-edit --username nur --description "street photos"
  photofeed profile-edit --username nur --picture ./me.jpg`,
	Args: cobra.NoArgs,
	RunE: runProfileEdit,
}

var postCmd = &cobra.Command{
	Use:   "post <image> <caption>",
	Short: "Publish an image with a caption",
	Args:  cobra.ExactArgs(2),
	RunE:  runPost,
}

func init() {
	profileEditCmd.Flags().String("username", "", "new username (required)")
	profileEditCmd.Flags().String("description", "", "profile description")
	profileEditCmd.Flags().String("picture", "", "path to a new profile picture")
	_ = profileEditCmd.MarkFlagRequired("username")

	postCmd.Flags().String("mime", "", "image mime type (guessed from the extension when empty)")

	rootCmd.AddCommand(notificationsCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(profileEditCmd)
	rootCmd.AddCommand(postCmd)
}

func runNotifications(cmd *cobra.Command, args []string) error {
	a, err := getApp(cmd.Context())
	if err != nil {
		return err
	}
	list, err := notifications.NewReader(a.client).Load(cmd.Context())
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(map[string]any{"notifications": list, "count": len(list)})
	}
	if len(list) == 0 {
		fmt.Fprintln(stdout, "No notifications")
		return nil
	}
	w := newTable()
	printTableHeader(w, "WHEN", "MESSAGE")
	for _, n := range list {
		fmt.Fprintf(w, "%s\t%s\n", n.CreatedAt.Local().Format("2006-01-02 15:04"), n.Message())
	}
	return w.Flush()
}

func runUsers(cmd *cobra.Command, args []string) error {
	a, err := getApp(cmd.Context())
	if err != nil {
		return err
	}
	query := ""
	if len(args) == 1 {
		query = args[0]
	}
	found, err := users.NewSearcher(a.client).Search(cmd.Context(), query)
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(map[string]any{"users": found, "count": len(found)})
	}
	if len(found) == 0 {
		fmt.Fprintln(stdout, "No users found")
		return nil
	}
	w := newTable()
	printTableHeader(w, "ID", "USERNAME", "EMAIL")
	for _, u := range found {
		fmt.Fprintf(w, "%s\t%s\t%s\n", u.ID, u.Username, u.Email)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	printer.Fprintf(stdout, "%d users\n", len(found))
	return nil
}

func runProfile(cmd *cobra.Command, args []string) error {
	a, err := getApp(cmd.Context())
	if err != nil {
		return err
	}
	userID := ""
	if len(args) == 1 {
		userID = args[0]
	}
	p, err := profile.NewService(a.client, a.session, a.events).Load(cmd.Context(), userID)
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(p)
	}
	fmt.Fprintf(stdout, "%s\n", p.User.Username)
	if p.User.Description != "" {
		fmt.Fprintf(stdout, "  %s\n", p.User.Description)
	}
	printer.Fprintf(stdout, "  %d posts\n\n", len(p.Posts))
	w := newTable()
	printTableHeader(w, "ID", "CAPTION", "LIKES")
	for _, post := range p.Posts {
		fmt.Fprintf(w, "%s\t%s\t%d\n", post.ID, truncate(post.Caption, 40), len(post.Likes))
	}
	return w.Flush()
}

func runProfileEdit(cmd *cobra.Command, args []string) error {
	a, err := getApp(cmd.Context())
	if err != nil {
		return err
	}
	username, _ := cmd.Flags().GetString("username")
	description, _ := cmd.Flags().GetString("description")
	picture, _ := cmd.Flags().GetString("picture")

	req := api.EditProfileRequest{Username: username, Description: description}
	if picture != "" {
		img := imageFile(picture, "")
		req.Picture = &img
	}
	u, err := profile.NewService(a.client, a.session, a.events).Edit(cmd.Context(), req)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(u)
	}
	fmt.Fprintf(stdout, "Profile updated: %s\n", u.Username)
	return nil
}

func runPost(cmd *cobra.Command, args []string) error {
	a, err := getApp(cmd.Context())
	if err != nil {
		return err
	}
	mimeType, _ := cmd.Flags().GetString("mime")

	p, err := posts.NewService(a.client, a.session, a.events).Upload(cmd.Context(), args[1], imageFile(args[0], mimeType))
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(p)
	}
	fmt.Fprintf(stdout, "Posted %s\n", p.ID)
	return nil
}

// imageFile describes a local image, guessing the mime type from the
// extension when none is given.
func imageFile(path, mimeType string) models.ImageFile {
	if mimeType == "" {
		mimeType = mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	}
	return models.ImageFile{Path: path, MimeType: mimeType, Name: filepath.Base(path)}
}
