package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Ashisharjun12/devfinder-final/internal/apperr"
	"github.com/Ashisharjun12/devfinder-final/internal/domain"
	"github.com/Ashisharjun12/devfinder-final/internal/project"
	"github.com/Ashisharjun12/devfinder-final/internal/repo"
)

// profile is a user as the API shows it: the avatar always resolved.
type profile struct {
	*domain.User
	Image string `json:"image"`
}

func toProfile(u *domain.User) profile {
	return profile{User: u, Image: u.AvatarURL()}
}

// publicProfile drops the email for profiles viewed by someone else.
type publicProfile struct {
	profile
	Email string `json:"email,omitempty"`
}

// Me godoc
// @Summary Current user's profile
// @Tags users
// @Security SessionAuth
// @Produce json
// @Success 200 {object} domain.User
// @Failure 401 {object} map[string]string
// @Router /me [get]
func (h *Handler) Me(c *gin.Context) {
	u, err := h.Users.FindUserByID(c.Request.Context(), principal(c).UID)
	if err != nil {
		writeError(c, userErr(err))
		return
	}
	c.JSON(http.StatusOK, toProfile(u))
}

type profileReq struct {
	Name      *string   `json:"name"`
	Bio       *string   `json:"bio"`
	Skills    *[]string `json:"skills"`
	Languages *[]string `json:"languages"`
}

func trimList(in *[]string) *[]string {
	if in == nil {
		return nil
	}
	out := make([]string, 0, len(*in))
	for _, s := range *in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return &out
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// UpdateMe godoc
// @Summary Update the current user's profile
// @Tags users
// @Security SessionAuth
// @Accept json
// @Produce json
// @Param payload body profileReq true "fields to change"
// @Success 200 {object} domain.User
// @Failure 400 {object} map[string]string
// @Router /me [put]
func (h *Handler) UpdateMe(c *gin.Context) {
	var in profileReq
	if err := bindBody(c, profileSchema, &in, false); err != nil {
		writeError(c, err)
		return
	}
	u, err := h.Users.UpdateProfile(c.Request.Context(), principal(c).UID, repo.UserProfilePatch{
		Name:      trimPtr(in.Name),
		Bio:       trimPtr(in.Bio),
		Skills:    trimList(in.Skills),
		Languages: trimList(in.Languages),
	})
	if err != nil {
		writeError(c, userErr(err))
		return
	}
	c.JSON(http.StatusOK, toProfile(u))
}

// GetUser godoc
// @Summary Public profile of a user
// @Tags users
// @Security SessionAuth
// @Produce json
// @Param id path string true "user id"
// @Success 200 {object} domain.User
// @Failure 404 {object} map[string]string
// @Router /users/{id} [get]
func (h *Handler) GetUser(c *gin.Context) {
	id, err := project.ParseID(c.Param("id"), "user")
	if err != nil {
		writeError(c, err)
		return
	}
	u, err := h.Users.FindUserByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, userErr(err))
		return
	}
	out := publicProfile{profile: toProfile(u)}
	if id == principal(c).UID {
		out.Email = u.Email
	}
	c.JSON(http.StatusOK, out)
}

func userErr(err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return apperr.NotFound("user not found")
	}
	return apperr.Internal(err)
}
