// Package trackertest provides an in-memory Jira REST double for tests.
package trackertest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/ShayCichocki/reqforge/internal/tracker"
)

// Issue is an item stored by the double.
type Issue struct {
	Key         string
	Project     string
	Summary     string
	Description string
	IssueType   string
	ParentKey   string
	AssigneeID  string
}

// Link is a relationship stored by the double.
type Link struct {
	Type    string
	Outward string
	Inward  string
}

// Server is an httptest server speaking the subset of Jira REST v3 used by reqforge.
// Hooks may be set before requests are made.
type Server struct {
	*httptest.Server

	Project   string
	LinkTypes []tracker.LinkType

	// FailCreate rejects an item creation with 400 when it returns true.
	FailCreate func(summary, issueType string) bool
	// FailLink rejects a relationship of the given type with 404 when it returns true.
	FailLink func(typeName string) bool
	// FailLinkTypes makes the vocabulary endpoint return 500.
	FailLinkTypes bool
	// FailSearch makes the search endpoint return 500.
	FailSearch bool

	mu        sync.Mutex
	seq       int
	issues    []Issue
	links     []Link
	linkTries []Link
}

// DefaultLinkTypes mirrors the vocabulary of a fresh Jira Cloud site.
func DefaultLinkTypes() []tracker.LinkType {
	return []tracker.LinkType{
		{ID: "10000", Name: "Blocks", Inward: "is blocked by", Outward: "blocks"},
		{ID: "10001", Name: "Cloners", Inward: "is cloned by", Outward: "clones"},
		{ID: "10002", Name: "Duplicate", Inward: "is duplicated by", Outward: "duplicates"},
		{ID: "10003", Name: "Relates", Inward: "relates to", Outward: "relates to"},
	}
}

// NewServer starts a double for project with the default vocabulary.
// Callers must Close it.
func NewServer(project string) *Server {
	s := &Server{Project: project, LinkTypes: DefaultLinkTypes()}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /rest/api/3/issue", s.createIssue)
	mux.HandleFunc("GET /rest/api/3/issueLinkType", s.linkTypes)
	mux.HandleFunc("POST /rest/api/3/issueLink", s.createLink)
	mux.HandleFunc("GET /rest/api/3/search/jql", s.search)

	s.Server = httptest.NewServer(requireAuth(mux))
	return s
}

// Seed stores an item directly, as if it existed before the run.
func (s *Server) Seed(summary string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	key := fmt.Sprintf("%s-%d", s.Project, s.seq)
	s.issues = append(s.issues, Issue{Key: key, Project: s.Project, Summary: summary, IssueType: "Task"})
	return key
}

// Issues returns a copy of the stored items in creation order.
func (s *Server) Issues() []Issue {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Issue(nil), s.issues...)
}

// Issue returns the stored item with key.
func (s *Server) Issue(key string) (Issue, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, is := range s.issues {
		if is.Key == key {
			return is, true
		}
	}
	return Issue{}, false
}

// Children returns the keys of items whose parent is key.
func (s *Server) Children(key string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, is := range s.issues {
		if is.ParentKey == key {
			out = append(out, is.Key)
		}
	}
	return out
}

// Links returns the recorded relationships.
func (s *Server) Links() []Link {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Link(nil), s.links...)
}

// LinkAttempts returns every relationship request, successful or not.
func (s *Server) LinkAttempts() []Link {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Link(nil), s.linkTries...)
}

func requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, _, ok := r.BasicAuth(); !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"errorMessages": []string{"authentication required"}})
			return
		}
		next.ServeHTTP(w, r)
	})
}

type adf struct {
	Type    string `json:"type"`
	Text    string `json:"text"`
	Content []adf  `json:"content"`
}

func (n adf) plain() string {
	switch n.Type {
	case "text":
		return n.Text
	case "hardBreak":
		return "\n"
	}
	var parts []string
	var b strings.Builder
	for _, c := range n.Content {
		if n.Type == "doc" {
			parts = append(parts, c.plain())
			continue
		}
		b.WriteString(c.plain())
	}
	if n.Type == "doc" {
		return strings.Join(parts, "\n\n")
	}
	return b.String()
}

func (s *Server) createIssue(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Fields struct {
			Project     struct{ Key string }  `json:"project"`
			Summary     string                `json:"summary"`
			Description adf                   `json:"description"`
			IssueType   struct{ Name string } `json:"issuetype"`
			Parent      *struct{ Key string } `json:"parent"`
			Assignee    *struct{ ID string }  `json:"assignee"`
		} `json:"fields"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"errorMessages": []string{err.Error()}})
		return
	}
	f := req.Fields

	if s.FailCreate != nil && s.FailCreate(f.Summary, f.IssueType.Name) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": map[string]string{"summary": "rejected by test"}})
		return
	}
	if f.Project.Key != s.Project {
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": map[string]string{"project": "valid project is required"}})
		return
	}

	s.mu.Lock()
	is := Issue{
		Project:     f.Project.Key,
		Summary:     f.Summary,
		Description: f.Description.plain(),
		IssueType:   f.IssueType.Name,
	}
	if f.Parent != nil {
		if !s.hasLocked(f.Parent.Key) {
			s.mu.Unlock()
			writeJSON(w, http.StatusBadRequest, map[string]any{"errors": map[string]string{"parent": "parent not found"}})
			return
		}
		is.ParentKey = f.Parent.Key
	}
	if f.Assignee != nil {
		is.AssigneeID = f.Assignee.ID
	}
	s.seq++
	is.Key = fmt.Sprintf("%s-%d", s.Project, s.seq)
	s.issues = append(s.issues, is)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]string{
		"id":   strconv.Itoa(10000 + s.seqOf(is.Key)),
		"key":  is.Key,
		"self": s.URL + "/rest/api/3/issue/" + is.Key,
	})
}

func (s *Server) seqOf(key string) int {
	n, _ := strconv.Atoi(key[strings.LastIndex(key, "-")+1:])
	return n
}

func (s *Server) hasLocked(key string) bool {
	for _, is := range s.issues {
		if is.Key == key {
			return true
		}
	}
	return false
}

func (s *Server) linkTypes(w http.ResponseWriter, r *http.Request) {
	if s.FailLinkTypes {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"errorMessages": []string{"boom"}})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"issueLinkTypes": s.LinkTypes})
}

func (s *Server) createLink(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type         struct{ Name string } `json:"type"`
		OutwardIssue struct{ Key string }  `json:"outwardIssue"`
		InwardIssue  struct{ Key string }  `json:"inwardIssue"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"errorMessages": []string{err.Error()}})
		return
	}
	link := Link{Type: req.Type.Name, Outward: req.OutwardIssue.Key, Inward: req.InwardIssue.Key}

	s.mu.Lock()
	s.linkTries = append(s.linkTries, link)
	known := false
	for _, lt := range s.LinkTypes {
		if lt.Name == link.Type {
			known = true
		}
	}
	failed := !known || !s.hasLocked(link.Outward) || !s.hasLocked(link.Inward) ||
		(s.FailLink != nil && s.FailLink(link.Type))
	if !failed {
		s.links = append(s.links, link)
	}
	s.mu.Unlock()

	if failed {
		writeJSON(w, http.StatusNotFound, map[string]any{"errorMessages": []string{"No issue link type with name '" + link.Type + "' found."}})
		return
	}
	w.WriteHeader(http.StatusCreated)
}

var quotedRe = regexp.MustCompile(`"([^"]*)"`)

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	if s.FailSearch {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"errorMessages": []string{"search unavailable"}})
		return
	}

	q := r.URL.Query()
	quoted := quotedRe.FindAllStringSubmatch(q.Get("jql"), -1)
	if len(quoted) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"errorMessages": []string{"bad jql"}})
		return
	}
	project := quoted[0][1]
	excluded := map[string]bool{}
	for _, m := range quoted[1:] {
		excluded[m[1]] = true
	}

	pageSize, _ := strconv.Atoi(q.Get("maxResults"))
	if pageSize <= 0 {
		pageSize = 50
	}
	offset, _ := strconv.Atoi(q.Get("nextPageToken"))

	s.mu.Lock()
	var matched []Issue
	for _, is := range s.issues {
		if is.Project == project && !excluded[is.Key] {
			matched = append(matched, is)
		}
	}
	s.mu.Unlock()

	end := offset + pageSize
	if end > len(matched) {
		end = len(matched)
	}
	if offset > end {
		offset = end
	}

	issues := make([]map[string]any, 0, end-offset)
	for _, is := range matched[offset:end] {
		fields := map[string]any{
			"summary":  is.Summary,
			"status":   map[string]string{"name": "To Do"},
			"assignee": nil,
		}
		if is.AssigneeID != "" {
			fields["assignee"] = map[string]string{"displayName": "User " + is.AssigneeID}
		}
		issues = append(issues, map[string]any{"key": is.Key, "fields": fields})
	}

	resp := map[string]any{"issues": issues, "isLast": end >= len(matched)}
	if end < len(matched) {
		resp["nextPageToken"] = strconv.Itoa(end)
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
