package controllers

import (
	"errors"
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

// TopicController manages CRUD operations for topics. Reads are public,
// mutations are reserved for staff.
type TopicController struct {
	db *gorm.DB
}

// NewTopicController creates a new TopicController instance.
func NewTopicController(db *gorm.DB) *TopicController {
	return &TopicController{db: db}
}

// ListTopics returns paginated topics.
func (t *TopicController) ListTopics(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	cacheKey := fmt.Sprintf("cache:topics:list:page=%d:size=%d", page, pageSize)
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	var topics []models.Topic
	var total int64
	if err := t.db.Model(&models.Topic{}).Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to count topics")
		return
	}
	if err := t.db.Order("name ASC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&topics).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50011, "failed to list topics")
		return
	}

	payload := gin.H{
		"items":      newTopicDTOs(topics),
		"pagination": paginationMeta(page, pageSize, total),
	}
	utils.CacheSetJSON(cacheKey, wrap(payload), time.Hour)
	utils.Success(ctx, payload)
}

// GetTopic returns a single topic by id.
func (t *TopicController) GetTopic(ctx *gin.Context) {
	topicID, ok := pathID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40420, "topic not found")
		return
	}

	cacheKey := fmt.Sprintf("cache:topics:detail:%d", topicID)
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	var topic models.Topic
	if err := t.db.First(&topic, topicID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40420, "topic not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50012, "failed to load topic")
		return
	}

	payload := gin.H{"topic": newTopicDTO(topic)}
	utils.CacheSetJSON(cacheKey, wrap(payload), time.Hour)
	utils.Success(ctx, payload)
}

// CreateTopic lets staff add a new category.
func (t *TopicController) CreateTopic(ctx *gin.Context) {
	actor := middleware.Actor(ctx)
	if !policy.Can(actor, policy.ActionCreate, policy.Ref{Kind: policy.KindTopic}) {
		utils.Error(ctx, http.StatusForbidden, 40320, "only staff may manage topics")
		return
	}

	var req struct {
		Name string `json:"name" binding:"required,max=128"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		utils.ValidationError(ctx, 40021, utils.FieldErrors{"name": {"This field may not be blank."}})
		return
	}

	topic := models.Topic{Name: name, Slug: utils.Slugify(name)}
	if err := t.db.Create(&topic).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.ValidationError(ctx, 40022, utils.FieldErrors{
				"name": {fmt.Sprintf("Topic with name %s already exists.", name)},
			})
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50014, "failed to create topic")
		return
	}

	utils.InvalidateByPrefix("cache:topics:")
	utils.Created(ctx, gin.H{"topic": newTopicDTO(topic)})
}

// UpdateTopic renames a topic; the slug follows the name.
func (t *TopicController) UpdateTopic(ctx *gin.Context) {
	topicID, ok := pathID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40420, "topic not found")
		return
	}
	var topic models.Topic
	if err := t.db.First(&topic, topicID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40420, "topic not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50012, "failed to load topic")
		return
	}

	action := policy.ActionUpdate
	if ctx.Request.Method == http.MethodPatch {
		action = policy.ActionPartialUpdate
	}
	actor := middleware.Actor(ctx)
	if !policy.Can(actor, action, policy.Ref{Kind: policy.KindTopic}) {
		utils.Error(ctx, http.StatusForbidden, 40320, "only staff may manage topics")
		return
	}

	var req struct {
		Name string `json:"name" binding:"required,max=128"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40023, "invalid request payload")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		utils.ValidationError(ctx, 40021, utils.FieldErrors{"name": {"This field may not be blank."}})
		return
	}

	topic.Name = name
	topic.Slug = utils.Slugify(name)
	if err := t.db.Save(&topic).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.ValidationError(ctx, 40022, utils.FieldErrors{
				"name": {fmt.Sprintf("Topic with name %s already exists.", name)},
			})
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50015, "failed to update topic")
		return
	}

	utils.InvalidateByPrefix("cache:topics:")
	utils.Success(ctx, gin.H{"topic": newTopicDTO(topic)})
}

// DeleteTopic removes a topic together with every post under it.
func (t *TopicController) DeleteTopic(ctx *gin.Context) {
	topicID, ok := pathID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40420, "topic not found")
		return
	}
	var topic models.Topic
	if err := t.db.First(&topic, topicID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40420, "topic not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50012, "failed to load topic")
		return
	}

	actor := middleware.Actor(ctx)
	if !policy.Can(actor, policy.ActionDestroy, policy.Ref{Kind: policy.KindTopic}) {
		utils.Error(ctx, http.StatusForbidden, 40320, "only staff may manage topics")
		return
	}

	err := t.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("topic_id = ?", topic.ID).Delete(&models.Post{}).Error; err != nil {
			return err
		}
		return tx.Delete(&topic).Error
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50016, "failed to delete topic")
		return
	}

	utils.InvalidateByPrefix("cache:topics:")
	utils.InvalidateByPrefix("cache:posts:")
	utils.InvalidateByPrefix("cache:users:")
	utils.Success(ctx, gin.H{"message": "topic deleted"})
}
