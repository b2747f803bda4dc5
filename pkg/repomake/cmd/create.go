// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/telekom/repomake/pkg/repomake/auth"
	"github.com/telekom/repomake/pkg/repomake/github"
	"github.com/telekom/repomake/pkg/repomake/prompt"
)

var errAborted = errors.New("aborted by user")

type createOptions struct {
	token          string
	name           string
	description    string
	descriptionSet bool
	private        bool
	deleteTokens   bool
	quick          bool
	noBrowser      bool
}

type repositoryCreator interface {
	CreateRepository(ctx context.Context, token string, req github.RepositoryRequest) (*github.Repository, error)
}

// repoPlan accumulates what is known about the repository to create. Each
// step receives the plan and returns an updated copy.
type repoPlan struct {
	Name          string
	Description   string
	Private       bool
	Authorization auth.Authorization
	Repository    *github.Repository
}

type createStep struct {
	name string
	run  func(ctx context.Context, plan repoPlan) (repoPlan, error)
}

type createPipeline struct {
	opts       createOptions
	workingDir string
	prompt     *prompt.Prompter
	authorizer *auth.Authorizer
	repos      repositoryCreator
	log        *zap.SugaredLogger
}

func runCreate(cmd *cobra.Command, opts *createOptions) error {
	rt, err := getRuntime(cmd)
	if err != nil {
		return err
	}
	s, err := rt.openStore()
	if err != nil {
		return err
	}
	if opts.deleteTokens {
		if err := s.Clear(); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(rt.Writer(), "Deleted all saved tokens.")
		return nil
	}

	p := rt.prompter(!opts.quick && !rt.nonInteractive)

	httpClient, err := rt.httpClient()
	if err != nil {
		return err
	}
	exchanger, err := auth.NewExchangeClient(rt.cfg.ExchangeURL, httpClient)
	if err != nil {
		return err
	}
	timeout, err := rt.cfg.Timeout()
	if err != nil {
		return err
	}
	flow, err := auth.NewFlow(auth.FlowConfig{
		ClientID:     rt.cfg.ClientID,
		AuthorizeURL: rt.cfg.AuthorizeURL,
		Scopes:       rt.cfg.Scopes,
		CallbackPort: rt.cfg.CallbackPort,
		Timeout:      timeout,
		NoBrowser:    opts.noBrowser,
	}, exchanger,
		auth.WithBrowserOpener(rt.openBrowser),
		auth.WithOutput(rt.Writer()),
		auth.WithLogger(rt.Log()),
	)
	if err != nil {
		return err
	}
	gh, err := rt.githubClient(httpClient)
	if err != nil {
		return err
	}

	workingDir := rt.workingDir
	if workingDir == "" {
		workingDir, _ = os.Getwd()
	}

	pipeline := &createPipeline{
		opts:       *opts,
		workingDir: workingDir,
		prompt:     p,
		// the verifier shares the GitHub client with repository creation
		authorizer: auth.NewAuthorizer(s, p, flow, gh, rt.Log()),
		repos:      gh,
		log:        rt.Log(),
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	_, err = pipeline.run(ctx)
	return err
}

func (c *createPipeline) run(ctx context.Context) (repoPlan, error) {
	plan := repoPlan{Private: c.opts.private}
	steps := []createStep{
		{name: "resolveName", run: c.resolveName},
		{name: "resolveDescription", run: c.resolveDescription},
		{name: "authorize", run: c.authorize},
		{name: "confirm", run: c.confirm},
		{name: "create", run: c.create},
		{name: "offerSave", run: c.offerSave},
	}
	for _, step := range steps {
		c.log.Debugw("Create step", "step", step.name)
		next, err := step.run(ctx, plan)
		if err != nil {
			return plan, err
		}
		plan = next
	}
	return plan, nil
}

func (c *createPipeline) resolveName(_ context.Context, plan repoPlan) (repoPlan, error) {
	name := strings.TrimSpace(c.opts.name)
	if name == "" {
		def := ""
		if c.workingDir != "" {
			def = filepath.Base(c.workingDir)
		}
		if c.prompt.Interactive() {
			answer, err := c.prompt.Ask("What would you like to call your repository?", def)
			if err != nil {
				return plan, err
			}
			def = strings.TrimSpace(answer)
		}
		name = def
	}
	if name == "" || name == "." || name == string(filepath.Separator) {
		return plan, errors.New("repository name is required, pass --name")
	}
	plan.Name = name
	return plan, nil
}

func (c *createPipeline) resolveDescription(_ context.Context, plan repoPlan) (repoPlan, error) {
	if c.opts.descriptionSet || !c.prompt.Interactive() {
		plan.Description = c.opts.description
		return plan, nil
	}
	answer, err := c.prompt.Ask("Please enter a description for your repository:", "")
	if err != nil {
		return plan, err
	}
	plan.Description = answer
	return plan, nil
}

func (c *createPipeline) authorize(ctx context.Context, plan repoPlan) (repoPlan, error) {
	interactive := c.prompt.Interactive()
	authz, err := c.authorizer.Authorize(ctx, auth.Request{Token: c.opts.token, Quick: !interactive})
	if err != nil {
		if errors.Is(err, auth.ErrTokenInvalid) {
			c.prompt.Fail("GitHub did not accept the token.")
			return plan, fmt.Errorf("%w, it has been removed from saved tokens", err)
		}
		return plan, err
	}
	if !interactive {
		c.prompt.Info("Using token for %s", authz.Login)
	}
	plan.Authorization = authz
	return plan, nil
}

func (c *createPipeline) confirm(_ context.Context, plan repoPlan) (repoPlan, error) {
	if !c.prompt.Interactive() {
		return plan, nil
	}
	visibility := "public"
	if plan.Private {
		visibility = "private"
	}
	c.prompt.Println()
	c.prompt.Println("Name:       ", plan.Name)
	c.prompt.Println("Description:", plan.Description)
	c.prompt.Println("Visibility: ", visibility)
	c.prompt.Println("Login:      ", plan.Authorization.Login)
	c.prompt.Println()
	ok, err := c.prompt.Confirm("Are you sure you want to create the above repository?", true)
	if err != nil {
		return plan, err
	}
	if !ok {
		return plan, errAborted
	}
	return plan, nil
}

func (c *createPipeline) create(ctx context.Context, plan repoPlan) (repoPlan, error) {
	repo, err := c.repos.CreateRepository(ctx, plan.Authorization.Token, github.RepositoryRequest{
		Name:        plan.Name,
		Description: plan.Description,
		Private:     plan.Private,
	})
	if err != nil {
		c.prompt.Fail("Could not create repository %s", plan.Name)
		return plan, err
	}
	plan.Repository = repo

	branch := repo.DefaultBranch
	if branch == "" {
		branch = "main"
	}
	c.prompt.Success("Repository has been created. Visit at %s", repo.HTMLURL)
	c.prompt.Println()
	c.prompt.Println("To connect an existing local repository run:")
	c.prompt.Println()
	c.prompt.Println("  git remote add origin " + repo.SSHURL)
	c.prompt.Println("  git push -u origin " + branch)
	c.prompt.Println()
	return plan, nil
}

// offerSave never fails the run: the repository already exists.
func (c *createPipeline) offerSave(_ context.Context, plan repoPlan) (repoPlan, error) {
	if !c.prompt.Interactive() {
		return plan, nil
	}
	saved, err := c.authorizer.OfferSave(plan.Authorization, c.prompt)
	if err != nil {
		c.prompt.Warn("%v", err)
		return plan, nil
	}
	if saved {
		c.prompt.Success("Token for %s saved.", plan.Authorization.Login)
	}
	return plan, nil
}
