package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/maiaai/blog/middleware"
	"github.com/maiaai/blog/models"
	"github.com/maiaai/blog/policy"
	"github.com/maiaai/blog/utils"
)

// PostController manages CRUD operations and the publish transition for posts.
type PostController struct {
	db *gorm.DB
}

// NewPostController creates a new PostController instance.
func NewPostController(db *gorm.DB) *PostController {
	return &PostController{db: db}
}

// ListPosts returns paginated posts. The optional q parameter filters to posts
// whose title or content contains the substring, case-insensitive.
func (p *PostController) ListPosts(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	q := strings.TrimSpace(ctx.Query("q"))

	// Cache only unfiltered pages to avoid cache key explosion.
	cacheKey := fmt.Sprintf("cache:posts:list:page=%d:size=%d", page, pageSize)
	if q == "" {
		if b, ok := utils.CacheGetBytes(cacheKey); ok {
			ctx.Data(http.StatusOK, "application/json", b)
			return
		}
	}

	var posts []models.Post
	var total int64

	query := p.db.Model(&models.Post{}).Order("created_at ASC, id ASC")
	if q != "" {
		// Single-table OR filter: a post matching both fields still yields one row.
		needle := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(content) LIKE ?", needle, needle)
	}
	if err := query.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to count posts")
		return
	}
	if err := query.Offset((page - 1) * pageSize).Limit(pageSize).Find(&posts).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to list posts")
		return
	}

	payload := gin.H{
		"items":      newPostDTOs(posts),
		"pagination": paginationMeta(page, pageSize, total),
	}
	if q == "" {
		utils.CacheSetJSON(cacheKey, wrap(payload), time.Hour)
	}
	utils.Success(ctx, payload)
}

// GetPost returns a single post.
func (p *PostController) GetPost(ctx *gin.Context) {
	postID, ok := pathID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
		return
	}

	cacheKey := fmt.Sprintf("cache:posts:detail:%d", postID)
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	var post models.Post
	if err := p.db.First(&post, postID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load post")
		return
	}

	payload := gin.H{"post": newPostDTO(post)}
	utils.CacheSetJSON(cacheKey, wrap(payload), time.Hour)
	utils.Success(ctx, payload)
}

// CreatePost creates a post for the authenticated requester. The author always
// comes from the token identity; any author value in the body is ignored.
func (p *PostController) CreatePost(ctx *gin.Context) {
	actor := middleware.Actor(ctx)
	if !policy.Can(actor, policy.ActionCreate, policy.Ref{Kind: policy.KindPost}) {
		utils.Error(ctx, http.StatusForbidden, 40330, "authentication required to create posts")
		return
	}

	var req struct {
		Title   string `json:"title" binding:"required,min=1"`
		Content string `json:"content" binding:"required"`
		Topic   uint   `json:"topic" binding:"required"`
		Status  string `json:"status"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "invalid request payload")
		return
	}

	title := utils.Sanitize(strings.TrimSpace(req.Title))
	if title == "" {
		utils.ValidationError(ctx, 40031, utils.FieldErrors{"title": {"This field may not be blank."}})
		return
	}

	status := req.Status
	if status == "" {
		status = models.PostStatusDraft
	}
	if !models.ValidPostStatus(status) {
		utils.ValidationError(ctx, 40032, utils.FieldErrors{
			"status": {fmt.Sprintf("%q is not a valid choice.", req.Status)},
		})
		return
	}

	var topic models.Topic
	if err := p.db.First(&topic, req.Topic).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.ValidationError(ctx, 40033, utils.FieldErrors{"topic": {"Topic does not exist."}})
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to load topic")
		return
	}

	post := models.Post{
		UserID:  actor.ID,
		TopicID: topic.ID,
		Title:   title,
		Content: utils.Sanitize(req.Content),
		Status:  status,
	}

	if err := p.db.Create(&post).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50025, "failed to create post")
		return
	}

	utils.InvalidateByPrefix("cache:posts:")
	utils.InvalidateByPrefix("cache:users:")
	utils.Created(ctx, gin.H{"post": newPostDTO(post)})
}

// UpdatePost replaces the mutable fields of a post.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	var req struct {
		Title   string  `json:"title" binding:"required,min=1"`
		Content string  `json:"content" binding:"required"`
		Topic   uint    `json:"topic" binding:"required"`
		Status  *string `json:"status"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40034, "invalid request payload")
		return
	}
	p.applyUpdate(ctx, policy.ActionUpdate, &req.Title, &req.Content, &req.Topic, req.Status)
}

// PatchPost updates only the provided fields.
func (p *PostController) PatchPost(ctx *gin.Context) {
	var req struct {
		Title   *string `json:"title"`
		Content *string `json:"content"`
		Topic   *uint   `json:"topic"`
		Status  *string `json:"status"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40035, "invalid request payload")
		return
	}
	p.applyUpdate(ctx, policy.ActionPartialUpdate, req.Title, req.Content, req.Topic, req.Status)
}

// applyUpdate loads the target, checks ownership, and persists field changes.
// Status is not mutable here: the only way out of draft is the publish action,
// so a differing status value is rejected instead of silently applied.
func (p *PostController) applyUpdate(ctx *gin.Context, action policy.Action, title, content *string, topicID *uint, status *string) {
	postID, ok := pathID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
		return
	}
	var post models.Post
	if err := p.db.First(&post, postID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load post")
		return
	}

	actor := middleware.Actor(ctx)
	if !policy.Can(actor, action, policy.Ref{Kind: policy.KindPost, OwnerID: post.UserID}) {
		utils.Error(ctx, http.StatusForbidden, 40331, "you can only modify your own posts")
		return
	}

	if status != nil && *status != post.Status {
		utils.ValidationError(ctx, 40036, utils.FieldErrors{
			"status": {"Status cannot be changed here; use the publish action."},
		})
		return
	}

	if title != nil {
		t := utils.Sanitize(strings.TrimSpace(*title))
		if t == "" {
			utils.ValidationError(ctx, 40031, utils.FieldErrors{"title": {"This field may not be blank."}})
			return
		}
		post.Title = t
	}
	if content != nil {
		post.Content = utils.Sanitize(*content)
	}
	if topicID != nil {
		var topic models.Topic
		if err := p.db.First(&topic, *topicID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				utils.ValidationError(ctx, 40033, utils.FieldErrors{"topic": {"Topic does not exist."}})
				return
			}
			utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to load topic")
			return
		}
		post.TopicID = topic.ID
	}

	if err := p.db.Save(&post).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to update post")
		return
	}

	utils.InvalidateByPrefix("cache:posts:")
	utils.InvalidateByPrefix("cache:users:")
	utils.Success(ctx, gin.H{"post": newPostDTO(post)})
}

// DeletePost allows the author or an admin to delete a post.
func (p *PostController) DeletePost(ctx *gin.Context) {
	postID, ok := pathID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
		return
	}
	var post models.Post
	if err := p.db.First(&post, postID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load post")
		return
	}

	actor := middleware.Actor(ctx)
	if !policy.Can(actor, policy.ActionDestroy, policy.Ref{Kind: policy.KindPost, OwnerID: post.UserID}) {
		utils.Error(ctx, http.StatusForbidden, 40332, "you can only delete your own posts")
		return
	}

	if err := p.db.Delete(&post).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50027, "failed to delete post")
		return
	}

	utils.InvalidateByPrefix("cache:posts:")
	utils.InvalidateByPrefix("cache:users:")
	utils.Success(ctx, gin.H{"message": "post deleted"})
}

// PublishPost moves a draft to published. Guards run in order: the requester
// must be authenticated, must be the author, and the post must still be a
// draft. The write is a compare-and-set so two concurrent publishes cannot
// both succeed.
func (p *PostController) PublishPost(ctx *gin.Context) {
	postID, ok := pathID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
		return
	}
	var post models.Post
	if err := p.db.First(&post, postID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load post")
		return
	}

	actor := middleware.Actor(ctx)
	if !policy.Can(actor, policy.ActionPublish, policy.Ref{Kind: policy.KindPost, OwnerID: post.UserID}) {
		utils.Error(ctx, http.StatusForbidden, 40333, "authentication required to publish posts")
		return
	}

	if post.UserID != actor.ID {
		utils.Error(ctx, http.StatusBadRequest, 40037, "you cannot publish a post that is not yours.")
		return
	}

	if post.Published() {
		utils.Error(ctx, http.StatusBadRequest, 40038, "this post is already published.")
		return
	}

	res := p.db.Model(&models.Post{}).
		Where("id = ? AND status = ?", post.ID, models.PostStatusDraft).
		Update("status", models.PostStatusPublished)
	if res.Error != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50028, "failed to publish post")
		return
	}
	if res.RowsAffected == 0 {
		// Lost the race against a concurrent publish.
		utils.Error(ctx, http.StatusBadRequest, 40038, "this post is already published.")
		return
	}

	utils.InvalidateByPrefix("cache:posts:")
	utils.InvalidateByPrefix("cache:users:")
	utils.Success(ctx, gin.H{"message": "post published"})
}
