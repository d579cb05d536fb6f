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

// UserController manages CRUD operations for user accounts.
type UserController struct {
	db *gorm.DB
}

// NewUserController creates a new UserController instance.
func NewUserController(db *gorm.DB) *UserController {
	return &UserController{db: db}
}

// ListUsers returns paginated users with their posts embedded.
func (u *UserController) ListUsers(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	var users []models.User
	var total int64
	if err := u.db.Model(&models.User{}).Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to count users")
		return
	}
	if err := u.db.Preload("Posts").Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).Find(&users).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to retrieve users")
		return
	}

	utils.Success(ctx, gin.H{
		"items":      newUserDTOs(users),
		"pagination": paginationMeta(page, pageSize, total),
	})
}

// GetUser returns a single user by id.
func (u *UserController) GetUser(ctx *gin.Context) {
	userID, ok := pathID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
		return
	}

	cacheKey := fmt.Sprintf("cache:users:detail:%d", userID)
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	var user models.User
	if err := u.db.Preload("Posts").First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50002, "failed to load user")
		return
	}

	payload := gin.H{"user": newUserDTO(user)}
	utils.CacheSetJSON(cacheKey, wrap(payload), time.Hour)
	utils.Success(ctx, payload)
}

// CreateUser handles open signup. The password is bcrypt hashed before it is
// stored and the account is set active immediately.
func (u *UserController) CreateUser(ctx *gin.Context) {
	var req struct {
		FirstName string `json:"first_name" binding:"required"`
		LastName  string `json:"last_name" binding:"required"`
		Email     string `json:"email" binding:"required,email"`
		Password  string `json:"password" binding:"required,min=6"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40010, "invalid request payload")
		return
	}

	email := strings.TrimSpace(req.Email)
	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to hash password")
		return
	}

	user := models.User{
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
	}

	// The email unique index is the only uniqueness check; concurrent
	// signups race to it and the loser gets the field error.
	if err := u.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.ValidationError(ctx, 40011, utils.FieldErrors{
				"email": {fmt.Sprintf("User with email %s already exists.", email)},
			})
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50005, "failed to create user")
		return
	}

	utils.InvalidateByPrefix("cache:users:")
	utils.Created(ctx, gin.H{"user": newUserDTO(user)})
}

// UpdateUser replaces the mutable fields of a user. Only the user itself or an
// admin may do this.
func (u *UserController) UpdateUser(ctx *gin.Context) {
	var req struct {
		FirstName string  `json:"first_name" binding:"required"`
		LastName  string  `json:"last_name" binding:"required"`
		Email     string  `json:"email" binding:"required,email"`
		Password  *string `json:"password"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40012, "invalid request payload")
		return
	}
	u.applyUpdate(ctx, policy.ActionUpdate, &req.FirstName, &req.LastName, &req.Email, req.Password)
}

// PatchUser updates only the provided fields.
func (u *UserController) PatchUser(ctx *gin.Context) {
	var req struct {
		FirstName *string `json:"first_name"`
		LastName  *string `json:"last_name"`
		Email     *string `json:"email" binding:"omitempty,email"`
		Password  *string `json:"password"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40013, "invalid request payload")
		return
	}
	u.applyUpdate(ctx, policy.ActionPartialUpdate, req.FirstName, req.LastName, req.Email, req.Password)
}

func (u *UserController) applyUpdate(ctx *gin.Context, action policy.Action, firstName, lastName, email, password *string) {
	userID, ok := pathID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
		return
	}
	var user models.User
	if err := u.db.First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50002, "failed to load user")
		return
	}

	actor := middleware.Actor(ctx)
	if !policy.Can(actor, action, policy.Ref{Kind: policy.KindUser, OwnerID: user.ID}) {
		utils.Error(ctx, http.StatusForbidden, 40310, "you do not have permission to modify this user")
		return
	}

	if firstName != nil {
		if strings.TrimSpace(*firstName) == "" {
			utils.ValidationError(ctx, 40014, utils.FieldErrors{"first_name": {"This field may not be blank."}})
			return
		}
		user.FirstName = strings.TrimSpace(*firstName)
	}
	if lastName != nil {
		if strings.TrimSpace(*lastName) == "" {
			utils.ValidationError(ctx, 40014, utils.FieldErrors{"last_name": {"This field may not be blank."}})
			return
		}
		user.LastName = strings.TrimSpace(*lastName)
	}
	if email != nil {
		user.Email = strings.TrimSpace(*email)
	}
	if password != nil {
		if len(*password) < 6 {
			utils.ValidationError(ctx, 40015, utils.FieldErrors{"password": {"Ensure this field has at least 6 characters."}})
			return
		}
		hash, err := utils.HashPassword(*password)
		if err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to hash password")
			return
		}
		user.PasswordHash = hash
	}

	if err := u.db.Save(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.ValidationError(ctx, 40011, utils.FieldErrors{
				"email": {fmt.Sprintf("User with email %s already exists.", user.Email)},
			})
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50006, "failed to update user")
		return
	}

	utils.InvalidateByPrefix("cache:users:")
	utils.Success(ctx, gin.H{"user": newUserDTO(user)})
}

// DeleteUser removes a user together with their posts. Only the user itself or
// an admin may do this.
func (u *UserController) DeleteUser(ctx *gin.Context) {
	userID, ok := pathID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
		return
	}
	var user models.User
	if err := u.db.First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50002, "failed to load user")
		return
	}

	actor := middleware.Actor(ctx)
	if !policy.Can(actor, policy.ActionDestroy, policy.Ref{Kind: policy.KindUser, OwnerID: user.ID}) {
		utils.Error(ctx, http.StatusForbidden, 40311, "you do not have permission to delete this user")
		return
	}

	err := u.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Post{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50007, "failed to delete user")
		return
	}

	utils.InvalidateByPrefix("cache:users:")
	utils.InvalidateByPrefix("cache:posts:")
	utils.Success(ctx, gin.H{"message": "user deleted"})
}
