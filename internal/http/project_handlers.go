package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Ashisharjun12/devfinder-final/internal/domain"
	"github.com/Ashisharjun12/devfinder-final/internal/project"
)

type projectReq struct {
	Title          *string   `json:"title"`
	Description    *string   `json:"description"`
	RequiredSkills *[]string `json:"requiredSkills"`
	Stage          *string   `json:"stage"`
	GithubURL      *string   `json:"githubUrl"`
	WhatsappNumber *string   `json:"whatsappNumber"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ListProjects godoc
// @Summary List and search projects
// @Tags projects
// @Produce json
// @Param query query string false "substring of title, description or GitHub URL"
// @Param tech query string false "comma separated skills, all must match"
// @Param owner query string false "owner email"
// @Success 200 {array} domain.Project
// @Router /projects [get]
func (h *Handler) ListProjects(c *gin.Context) {
	out, err := h.Projects.List(c.Request.Context(), project.ListFilter{
		Query:      c.Query("query"),
		Tech:       domain.ParseTech(c.Query("tech")),
		OwnerEmail: c.Query("owner"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// CreateProject godoc
// @Summary Create a project owned by the caller
// @Tags projects
// @Security SessionAuth
// @Accept json
// @Produce json
// @Param payload body projectReq true "project"
// @Success 201 {object} domain.Project
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /projects [post]
func (h *Handler) CreateProject(c *gin.Context) {
	var in projectReq
	if err := bindBody(c, createProjectSchema, &in, false); err != nil {
		writeError(c, err)
		return
	}
	input := project.CreateInput{
		Title:          deref(in.Title),
		Description:    deref(in.Description),
		Stage:          deref(in.Stage),
		GithubURL:      deref(in.GithubURL),
		WhatsappNumber: deref(in.WhatsappNumber),
	}
	if in.RequiredSkills != nil {
		input.RequiredSkills = *in.RequiredSkills
	}
	p, err := h.Projects.Create(c.Request.Context(), principal(c), input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// GetProject godoc
// @Summary Get a project
// @Tags projects
// @Produce json
// @Param id path string true "project id"
// @Success 200 {object} domain.Project
// @Failure 404 {object} map[string]string
// @Router /projects/{id} [get]
func (h *Handler) GetProject(c *gin.Context) {
	id, err := project.ParseID(c.Param("id"), "project")
	if err != nil {
		writeError(c, err)
		return
	}
	p, err := h.Projects.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// UpdateProject godoc
// @Summary Partially update a project (owner only)
// @Tags projects
// @Security SessionAuth
// @Accept json
// @Produce json
// @Param id path string true "project id"
// @Param payload body projectReq true "fields to change"
// @Success 200 {object} domain.Project
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /projects/{id} [put]
func (h *Handler) UpdateProject(c *gin.Context) {
	id, err := project.ParseID(c.Param("id"), "project")
	if err != nil {
		writeError(c, err)
		return
	}
	var in projectReq
	if err := bindBody(c, updateProjectSchema, &in, false); err != nil {
		writeError(c, err)
		return
	}
	p, err := h.Projects.Update(c.Request.Context(), principal(c), id, project.UpdateInput{
		Title:          in.Title,
		Description:    in.Description,
		RequiredSkills: in.RequiredSkills,
		Stage:          in.Stage,
		GithubURL:      in.GithubURL,
		WhatsappNumber: in.WhatsappNumber,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// DeleteProject godoc
// @Summary Delete a project (owner only)
// @Tags projects
// @Security SessionAuth
// @Param id path string true "project id"
// @Success 204
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /projects/{id} [delete]
func (h *Handler) DeleteProject(c *gin.Context) {
	id, err := project.ParseID(c.Param("id"), "project")
	if err != nil {
		writeError(c, err)
		return
	}
	if err := h.Projects.Delete(c.Request.Context(), principal(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
