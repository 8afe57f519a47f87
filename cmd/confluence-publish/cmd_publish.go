/*
Copyright © 2024 paul <paul@denknerd.org>
*/

package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"gopkg.in/dnaeon/go-vcr.v3/cassette"
	"gopkg.in/dnaeon/go-vcr.v3/recorder"

	"github.com/toothbrush/confluence-publish/confluence"
	"github.com/toothbrush/confluence-publish/credentials"
	"github.com/toothbrush/confluence-publish/internal/logging"
	"github.com/toothbrush/confluence-publish/publish"
)

// publishCmd represents the publish command
var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Render a markdown file and push it to a Confluence page",
	Long: `
Convert the given markdown file to Confluence storage format, render any mermaid diagrams,
upload local images as attachments, and create or update the destination page.
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		debugLog("  Markdown: %v\n", Markdown)
		return runPublish(cmd)
	},
}

var (
	Markdown        string
	Space           string
	Title           string
	ParentID        string
	PageID          string
	SaveCredentials bool
	WithVCR         bool
)

func init() {
	rootCmd.AddCommand(publishCmd)

	publishCmd.Flags().StringVar(&Markdown, "markdown", "", "path to the markdown file to publish")
	publishCmd.Flags().StringVar(&Space, "space", "", "key of the destination Confluence space")
	publishCmd.Flags().StringVar(&Title, "title", "", "title of the destination page")
	publishCmd.Flags().StringVar(&ParentID, "parent-id", "", "page id to create the new page under")
	publishCmd.Flags().StringVar(&PageID, "page-id", "", "explicit page id to update, skipping the title lookup")
	publishCmd.Flags().BoolVar(&SaveCredentials, "save-credentials", false, "persist the resolved credentials back to the credentials file")
	publishCmd.Flags().BoolVar(&WithVCR, "with-vcr", false, "use go-vcr to cache responses")
}

func runPublish(cmd *cobra.Command) error {
	if Markdown == "" {
		return fmt.Errorf("cmd: no markdown file given.  Use --markdown.")
	}
	if Space == "" {
		return fmt.Errorf("cmd: no destination space given.  Use --space or set it in your config file.")
	}
	if Title == "" {
		return fmt.Errorf("cmd: no page title given.  Use --title.")
	}

	markdownPath, err := homedir.Expand(Markdown)
	if err != nil {
		return fmt.Errorf("cmd: couldn't expand homedir: %w", err)
	}
	if _, err := os.Stat(markdownPath); err != nil {
		return fmt.Errorf("cmd: couldn't stat markdown file %s: %w", markdownPath, err)
	}

	credsPath, err := homedir.Expand(CredentialsFile)
	if err != nil {
		return fmt.Errorf("cmd: couldn't expand homedir: %w", err)
	}

	creds, err := credentials.Load(credsPath)
	if err != nil {
		return fmt.Errorf("cmd: couldn't load credentials: %w", err)
	}
	creds.Merge(BaseURL, Username, APIToken)
	if err := creds.Validate(); err != nil {
		return fmt.Errorf("cmd: %w", err)
	}

	if SaveCredentials {
		if err := creds.Save(credsPath); err != nil {
			return fmt.Errorf("cmd: couldn't save credentials: %w", err)
		}
		debugLog("  saved credentials to %s\n", credsPath)
	}

	logPath := LogFile
	if logPath == "" {
		logPath = logging.DefaultPath()
	}
	logPath, err = homedir.Expand(logPath)
	if err != nil {
		return fmt.Errorf("cmd: couldn't expand homedir: %w", err)
	}
	logger, err := logging.New(logPath)
	if err != nil {
		return fmt.Errorf("cmd: couldn't set up logging: %w", err)
	}
	defer logger.Close()

	api, err := confluence.NewAPI(creds.BaseURL, creds.Username, creds.APIToken)
	if err != nil {
		return fmt.Errorf("cmd: Confluence API creation failed: %w", err)
	}

	if WithVCR {
		// set up VCR recordings.
		opts := &recorder.Options{
			CassetteName:       "fixtures/confluence-publish",
			Mode:               recorder.ModeReplayWithNewEpisodes,
			SkipRequestLatency: true,
			RealTransport:      http.DefaultTransport,
		}
		r, err := recorder.NewWithOptions(opts)
		if err != nil {
			return fmt.Errorf("cmd: couldn't set up go-vcr recording: %w", err)
		}

		defer r.Stop() // Make sure recorder is stopped once done with it

		// Add a hook which removes Authorization headers from all requests
		hook := func(i *cassette.Interaction) error {
			delete(i.Request.Headers, "Authorization")
			return nil
		}
		r.AddHook(hook, recorder.AfterCaptureHook)
		r.SetReplayableInteractions(true)

		api.Client = r.GetDefaultClient()
	}

	publisher := &publish.Publisher{
		API:        api,
		Logger:     logger,
		SpaceKey:   Space,
		Title:      Title,
		ParentID:   ParentID,
		PageID:     PageID,
		MermaidCLI: MermaidCLI,
	}

	logger.Infof("cmd: publishing %s to space %s as %q", markdownPath, Space, Title)
	if err := publisher.Publish(cmd.Context(), markdownPath); err != nil {
		logger.Errorf("%v", err)
		return err
	}

	logger.Infof("cmd: publish complete")
	return nil
}
