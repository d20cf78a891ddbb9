package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rogersnm/errand/internal/id"
	"github.com/rogersnm/errand/internal/model"
	"github.com/rogersnm/errand/internal/store"
)

const maxQuerySize = 1 << 10

func etag(version uint64) string {
	return `"v` + strconv.FormatUint(version, 10) + `"`
}

// respond writes data tagged with the store version. A request whose
// If-None-Match already names that version gets 304 and no body.
func respond(c *gin.Context, version uint64, data any) {
	tag := etag(version)
	c.Header("ETag", tag)
	if c.Request.Method == http.MethodGet && c.GetHeader("If-None-Match") == tag {
		c.Status(http.StatusNotModified)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"version": version,
		"data":    data,
	})
}

func fail(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{
		"success": false,
		"error":   err.Error(),
	})
}

func (s *Server) handleVersion(c *gin.Context) {
	s.mu.Lock()
	v := s.store.Version()
	s.mu.Unlock()
	respond(c, v, gin.H{"version": v})
}

func (s *Server) handleView(c *gin.Context) {
	view, err := store.ParseView(c.Param("name"))
	if err != nil {
		fail(c, http.StatusNotFound, err)
		return
	}
	s.mu.Lock()
	tasks, v := s.store.View(view), s.store.Version()
	s.mu.Unlock()
	respond(c, v, tasks)
}

func (s *Server) handleSearch(c *gin.Context) {
	q := c.Query("q")
	if q == "" || len(q) > maxQuerySize {
		fail(c, http.StatusBadRequest, errors.New("query parameter q is required and must be under 1KB"))
		return
	}
	s.mu.Lock()
	results, v := s.store.Search(q, c.Query("project")), s.store.Version()
	s.mu.Unlock()
	if results == nil {
		results = []store.SearchResult{}
	}
	respond(c, v, results)
}

func (s *Server) handleProjects(c *gin.Context) {
	s.mu.Lock()
	projects, v := s.store.Projects(), s.store.Version()
	s.mu.Unlock()
	if projects == nil {
		projects = []*model.Project{}
	}
	respond(c, v, projects)
}

func (s *Server) handleProjectTasks(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := c.Param("id")
	if _, ok := s.store.Project(id); !ok {
		fail(c, http.StatusNotFound, fmt.Errorf("project %s not found", id))
		return
	}
	respond(c, s.store.Version(), s.store.ItemsByProject(id))
}

func (s *Server) handleSectionTasks(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := c.Param("id")
	if _, ok := s.store.Section(id); !ok {
		fail(c, http.StatusNotFound, fmt.Errorf("section %s not found", id))
		return
	}
	respond(c, s.store.Version(), s.store.ItemsBySection(id))
}

func (s *Server) handleLabels(c *gin.Context) {
	s.mu.Lock()
	labels, v := s.store.Labels(), s.store.Version()
	s.mu.Unlock()
	if labels == nil {
		labels = []*model.Label{}
	}
	respond(c, v, labels)
}

func (s *Server) handleTask(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.store.Item(c.Param("id"))
	if !ok {
		fail(c, http.StatusNotFound, fmt.Errorf("task %s not found", c.Param("id")))
		return
	}
	respond(c, s.store.Version(), t)
}

// taskInput is the body of POST and PUT. On PUT, nil fields keep their
// current value.
type taskInput struct {
	Content     *string         `json:"content"`
	Description *string         `json:"description"`
	ProjectID   *string         `json:"project_id"`
	SectionID   *string         `json:"section_id"`
	ParentID    *string         `json:"parent_id"`
	Priority    *model.Priority `json:"priority"`
	Labels      *[]string       `json:"labels"`
	Pinned      *bool           `json:"pinned"`
	Due         *model.Due      `json:"due"`
	ClearDue    bool            `json:"clear_due"`
}

func (in taskInput) apply(t *model.Task) {
	if in.Content != nil {
		t.Content = *in.Content
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.ProjectID != nil {
		t.ProjectID = *in.ProjectID
	}
	if in.SectionID != nil {
		t.SectionID = *in.SectionID
	}
	if in.ParentID != nil {
		t.ParentID = *in.ParentID
	}
	if in.Priority != nil {
		t.Priority = *in.Priority
	}
	if in.Labels != nil {
		t.Labels = *in.Labels
	}
	if in.Pinned != nil {
		t.Pinned = *in.Pinned
	}
	if in.Due != nil {
		t.Due = in.Due
	}
	if in.ClearDue {
		t.Due = nil
	}
}

func (s *Server) handleCreateTask(c *gin.Context) {
	var in taskInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	t := &model.Task{ID: id.Generate(model.KindTask), CreatedAt: now, UpdatedAt: now}
	in.apply(t)
	if err := s.store.CheckTask(t); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	t = s.store.AddItem(t)
	s.writer.Put(t)
	c.Header("Location", "/api/tasks/"+t.ID)
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"version": s.store.Version(),
		"data":    t,
	})
}

func (s *Server) handleUpdateTask(c *gin.Context) {
	var in taskInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.store.Item(c.Param("id"))
	if !ok {
		fail(c, http.StatusNotFound, fmt.Errorf("task %s not found", c.Param("id")))
		return
	}
	next := cur.Clone()
	in.apply(next)
	next.UpdatedAt = s.now()
	if err := s.store.CheckTask(next); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	s.store.UpdateItem(next)
	s.writer.Put(next)
	respond(c, s.store.Version(), next)
}

// handleSetChecked closes or reopens a task. Closing a recurring task with
// occurrences left moves it to the next date and keeps it open.
func (s *Server) handleSetChecked(checked bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		defer s.mu.Unlock()

		cur, ok := s.store.Item(c.Param("id"))
		if !ok {
			fail(c, http.StatusNotFound, fmt.Errorf("task %s not found", c.Param("id")))
			return
		}
		var next *model.Task
		if checked {
			next, _ = cur.Complete(s.now())
		} else {
			next = cur.WithChecked(false, s.now())
		}
		s.store.UpdateItem(next)
		s.writer.Put(next)
		respond(c, s.store.Version(), next)
	}
}

// handleDeleteTask removes the task and every subtask below it as one batch.
func (s *Server) handleDeleteTask(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := c.Param("id")
	if _, ok := s.store.Item(id); !ok {
		fail(c, http.StatusNotFound, fmt.Errorf("task %s not found", id))
		return
	}
	ids := append([]string{id}, s.store.Descendants(id)...)
	s.store.ApplyChanges(nil, nil, ids)
	for _, rid := range ids {
		s.writer.Delete(model.KindTask, rid)
	}
	respond(c, s.store.Version(), gin.H{"removed": ids})
}
