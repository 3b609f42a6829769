package server

import (
	"io"
	"mime/multipart"
	"strings"
	"time"

	"chirp/internal/models"
	"chirp/internal/serializer"
	"chirp/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetPosts handles GET /api/posts
// Filters: tags (comma list, OR), user (author id), search (text substring).
func (s *Server) GetPosts(c *fiber.Ctx) error {
	page := parsePagination(c)

	authorID := c.QueryInt("user", 0)
	if authorID < 0 {
		authorID = 0
	}

	posts, err := s.postService.ListPosts(c.Context(), service.ListPostsInput{
		Tags:          splitCommaList(c.Query("tags")),
		AuthorID:      uint(authorID),
		Search:        c.Query("search"),
		Limit:         page.Limit,
		Offset:        page.Offset,
		CurrentUserID: s.optionalUserID(c),
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(serializer.PostsFrom(posts))
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.GetPost(c.Context(), postID, s.optionalUserID(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(serializer.PostDetailFrom(post))
}

// CreatePost handles POST /api/posts. Accepts multipart (text, tags,
// publish_at, images) or plain JSON when no images are attached.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	return s.createPost(c, nil)
}

// CreateReply handles POST /api/posts/:id/replies
func (s *Server) CreateReply(c *fiber.Ctx) error {
	parentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	return s.createPost(c, &parentID)
}

func (s *Server) createPost(c *fiber.Ctx, parentID *uint) error {
	userID := currentUserID(c)

	in := service.CreatePostInput{
		UserID:   userID,
		ParentID: parentID,
	}

	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid multipart form"))
		}
		in.Text = formValue(form, "text")
		in.Tags = splitCommaList(formValue(form, "tags"))

		if raw := formValue(form, "publish_at"); raw != "" {
			at, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return models.RespondWithError(c, fiber.StatusBadRequest,
					models.NewValidationError("publish_at must be RFC 3339"))
			}
			in.PublishAt = &at
		}

		uploads, err := readImageUploads(form.File["images"])
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Could not read uploaded image"))
		}
		in.Images = uploads
	} else {
		var req struct {
			Text      string     `json:"text"`
			Tags      []string   `json:"tags"`
			PublishAt *time.Time `json:"publish_at"`
		}
		if err := c.BodyParser(&req); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid request body"))
		}
		in.Text = req.Text
		in.Tags = req.Tags
		in.PublishAt = req.PublishAt
	}

	post, publishAt, err := s.postService.CreatePost(c.Context(), in)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(serializer.PostCreatedFrom(post, publishAt))
}

// UpdatePost handles PUT /api/posts/:id
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Text string   `json:"text"`
		Tags []string `json:"tags"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.UpdatePost(c.Context(), service.UpdatePostInput{
		UserID: currentUserID(c),
		PostID: postID,
		Text:   req.Text,
		Tags:   req.Tags,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(serializer.PostDetailFrom(post))
}

// DeletePost handles DELETE /api/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.DeletePost(c.Context(), currentUserID(c), postID); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Post deleted"})
}

// LikePost handles POST /api/posts/:id/like
// 200 with an empty object when the like was added, 204 when it already
// existed.
func (s *Server) LikePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	changed, err := s.postService.Like(c.Context(), currentUserID(c), postID)
	if err != nil {
		return respondError(c, err)
	}
	if !changed {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.JSON(fiber.Map{})
}

// UnlikePost handles DELETE /api/posts/:id/like with the same toggle contract.
func (s *Server) UnlikePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	changed, err := s.postService.Unlike(c.Context(), currentUserID(c), postID)
	if err != nil {
		return respondError(c, err)
	}
	if !changed {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.JSON(fiber.Map{})
}

// GetReplies handles GET /api/posts/:id/replies
func (s *Server) GetReplies(c *fiber.Ctx) error {
	parentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c)

	replies, err := s.postService.Replies(c.Context(), parentID, page.Limit, page.Offset, s.optionalUserID(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(serializer.PostsFrom(replies))
}

// GetHomeFeed handles GET /api/posts/home
func (s *Server) GetHomeFeed(c *fiber.Ctx) error {
	page := parsePagination(c)

	posts, err := s.postService.HomeFeed(c.Context(), currentUserID(c), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(serializer.PostsFrom(posts))
}

// GetLikedPosts handles GET /api/posts/liked
func (s *Server) GetLikedPosts(c *fiber.Ctx) error {
	page := parsePagination(c)

	posts, err := s.postService.LikedPosts(c.Context(), currentUserID(c), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(serializer.PostsFrom(posts))
}

func formValue(form *multipart.Form, key string) string {
	values := form.Value[key]
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func readImageUploads(headers []*multipart.FileHeader) ([]service.ImageUpload, error) {
	uploads := make([]service.ImageUpload, 0, len(headers))
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			return nil, err
		}
		content, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, service.ImageUpload{
			Filename: header.Filename,
			Content:  content,
		})
	}
	return uploads, nil
}
