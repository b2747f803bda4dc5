// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/telekom/repomake/pkg/repomake/store"
)

// IdentityView is a saved identity as shown to the user. The token is masked.
type IdentityView struct {
	Login      string `json:"login" yaml:"login"`
	Token      string `json:"token" yaml:"token"`
	MostRecent bool   `json:"mostRecent" yaml:"mostRecent"`
}

// IdentityViews lists ids newest first, the order used by the selection prompt.
func IdentityViews(ids store.Identities) []IdentityView {
	views := make([]IdentityView, 0, len(ids))
	for i, id := range ids.NewestFirst() {
		views = append(views, IdentityView{
			Login:      id.Login,
			Token:      store.MaskToken(id.Token),
			MostRecent: i == 0,
		})
	}
	return views
}

func WriteIdentityTable(w io.Writer, views []IdentityView) {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "#\tLOGIN\tTOKEN\tLAST USED")
	for i, v := range views {
		recent := ""
		if v.MostRecent {
			recent = "*"
		}
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, v.Login, v.Token, recent)
	}
	_ = tw.Flush()
}
