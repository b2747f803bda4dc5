// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"context"
	"errors"
	"fmt"

	gh "github.com/google/go-github/v66/github"
)

// ErrRepositoryNotCreated is returned when GitHub answers without a repository id.
var ErrRepositoryNotCreated = errors.New("error creating repository")

type RepositoryRequest struct {
	Name        string
	Description string
	Private     bool
}

// Repository is the subset of the created repository shown to the user.
type Repository struct {
	ID            int64
	FullName      string
	HTMLURL       string
	SSHURL        string
	CloneURL      string
	DefaultBranch string
	Private       bool
}

// CreateRepository creates a repository owned by the token's user.
func (c *Client) CreateRepository(ctx context.Context, token string, req RepositoryRequest) (*Repository, error) {
	if req.Name == "" {
		return nil, errors.New("repository name is required")
	}
	client, err := c.forToken(ctx, token)
	if err != nil {
		return nil, err
	}

	repo := &gh.Repository{
		Name:    gh.String(req.Name),
		Private: gh.Bool(req.Private),
	}
	if req.Description != "" {
		repo.Description = gh.String(req.Description)
	}

	c.log.Debugw("Creating repository", "name", req.Name, "private", req.Private)
	created, _, err := client.Repositories.Create(ctx, "", repo)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRepositoryNotCreated, asHTTPError(err))
	}
	if created.GetID() == 0 {
		return nil, ErrRepositoryNotCreated
	}
	return &Repository{
		ID:            created.GetID(),
		FullName:      created.GetFullName(),
		HTMLURL:       created.GetHTMLURL(),
		SSHURL:        created.GetSSHURL(),
		CloneURL:      created.GetCloneURL(),
		DefaultBranch: created.GetDefaultBranch(),
		Private:       created.GetPrivate(),
	}, nil
}
