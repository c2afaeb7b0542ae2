package admin

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/skill-academy/database"
	"github.com/sahilchouksey/skill-academy/model"
	"github.com/sahilchouksey/skill-academy/utils/auth"
	"github.com/sahilchouksey/skill-academy/utils/middleware"
	queryutil "github.com/sahilchouksey/skill-academy/utils/query"
	"github.com/sahilchouksey/skill-academy/utils/response"
	"gorm.io/gorm"
)

// ListUsersRequest represents the query parameters for listing users
type ListUsersRequest struct {
	Page    int    `query:"page"`
	Limit   int    `query:"limit"`
	Role    string `query:"role"`
	Search  string `query:"search"`
	Sort    string `query:"sort"`
	SortDir string `query:"sort_dir"`
}

// UpdateUserRequest represents the request body for updating a user's role
type UpdateUserRequest struct {
	Role string `json:"role"`
}

var sortableUserColumns = map[string]bool{
	"created_at": true,
	"email":      true,
	"username":   true,
}

// ListUsers retrieves all users with pagination and filters
// GET /admin/users
func ListUsers(c *fiber.Ctx, store database.Storage) error {
	db := store.GetDB().WithContext(c.UserContext())

	var req ListUsersRequest
	if err := c.QueryParser(&req); err != nil {
		return response.BadRequest(c, "Invalid query parameters")
	}

	if !sortableUserColumns[req.Sort] {
		req.Sort = "created_at"
	}
	if req.SortDir != "asc" {
		req.SortDir = "desc"
	}

	query := db.Model(&model.User{})

	if req.Role != "" {
		query = query.Where("role = ?", req.Role)
	}

	// Search by username, name or email
	if req.Search != "" {
		searchTerm := queryutil.ContainsPattern(req.Search)
		like := " LIKE ?" + queryutil.LikeEscape
		query = query.Where("LOWER(username)"+like+" OR LOWER(first_name)"+like+" OR LOWER(last_name)"+like+" OR LOWER(email)"+like,
			searchTerm, searchTerm, searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count users")
	}

	pagination := response.CalculatePagination(req.Page, req.Limit, total)
	offset := (pagination.CurrentPage - 1) * pagination.PerPage

	var users []model.User
	if err := query.Offset(offset).Limit(pagination.PerPage).Order(req.Sort + " " + req.SortDir).Find(&users).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch users")
	}

	return response.Paginated(c, users, pagination)
}

// GetUser retrieves a specific user with their enrollments and payments
// GET /admin/users/:id
func GetUser(c *fiber.Ctx, store database.Storage) error {
	db := store.GetDB().WithContext(c.UserContext())

	userID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	var user model.User
	if err := db.Preload("Courses.Course").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to fetch user")
	}

	var payments []model.Payment
	if err := db.Preload("Course").Where("user_id = ?", user.ID).Order("created_at DESC").Find(&payments).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch payments")
	}

	return response.Success(c, fiber.Map{
		"user":     user,
		"payments": payments,
	})
}

// UpdateUser changes a user's role. Demoting or promoting signs the user out
// everywhere so the new role takes effect immediately.
// PUT /admin/users/:id
func UpdateUser(c *fiber.Ctx, store database.Storage) error {
	db := store.GetDB().WithContext(c.UserContext())

	userID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	var req UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Role != "admin" && req.Role != "student" {
		return response.FieldErrors(c, map[string]string{"role": "role must be admin or student"})
	}

	// Prevent admin from demoting themselves
	if currentID, ok := middleware.GetUserID(c); ok && currentID == uint(userID) && req.Role != "admin" {
		return response.BadRequest(c, "You cannot remove your own admin role")
	}

	var user model.User
	if err := db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to fetch user")
	}

	if user.Role == req.Role {
		return response.Success(c, user)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Update("role", req.Role).Error; err != nil {
			return err
		}
		return auth.NewBlacklistService(tx).RevokeAllUserTokens(c.UserContext(), tx, user.ID)
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to update user")
	}
	user.Role = req.Role

	return response.SuccessWithMessage(c, "User updated successfully", user)
}
