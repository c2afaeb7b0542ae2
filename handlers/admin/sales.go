package admin

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/skill-academy/database"
	"github.com/sahilchouksey/skill-academy/model"
	"github.com/sahilchouksey/skill-academy/utils/response"
)

// Overview is the headline numbers of the marketplace
type Overview struct {
	TotalUsers        int64 `json:"total_users"`
	PublishedCourses  int64 `json:"published_courses"`
	DraftCourses      int64 `json:"draft_courses"`
	Enrollments       int64 `json:"enrollments"`
	PaidEnrollments   int64 `json:"paid_enrollments"`
	PendingPayments   int64 `json:"pending_payments"`
	CompletedPayments int64 `json:"completed_payments"`
	RevenueMinorUnits int64 `json:"revenue_minor_units"`
	ContactMessages   int64 `json:"contact_messages"`
}

// CourseSales is revenue and enrollment count for one course
type CourseSales struct {
	CourseID          uint   `json:"course_id"`
	Title             string `json:"title"`
	Sales             int64  `json:"sales"`
	RevenueMinorUnits int64  `json:"revenue_minor_units"`
}

// GetOverview retrieves marketplace-wide statistics
// GET /admin/overview
func GetOverview(c *fiber.Ctx, store database.Storage) error {
	db := store.GetDB().WithContext(c.UserContext())

	var stats Overview
	counts := []struct {
		dest  *int64
		model interface{}
		where string
		args  []interface{}
	}{
		{&stats.TotalUsers, &model.User{}, "", nil},
		{&stats.PublishedCourses, &model.Course{}, "status = ?", []interface{}{model.CourseStatusPublish}},
		{&stats.DraftCourses, &model.Course{}, "status = ?", []interface{}{model.CourseStatusDraft}},
		{&stats.Enrollments, &model.UserCourse{}, "", nil},
		{&stats.PaidEnrollments, &model.UserCourse{}, "paid = ?", []interface{}{true}},
		{&stats.PendingPayments, &model.Payment{}, "status = ?", []interface{}{model.PaymentStatusPending}},
		{&stats.CompletedPayments, &model.Payment{}, "status = ?", []interface{}{model.PaymentStatusCompleted}},
		{&stats.ContactMessages, &model.ContactMessage{}, "", nil},
	}

	for _, count := range counts {
		query := db.Model(count.model)
		if count.where != "" {
			query = query.Where(count.where, count.args...)
		}
		if err := query.Count(count.dest).Error; err != nil {
			return err
		}
	}

	if err := db.Model(&model.Payment{}).
		Where("status = ?", model.PaymentStatusCompleted).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&stats.RevenueMinorUnits).Error; err != nil {
		return err
	}

	return response.Success(c, stats)
}

// GetCourseSales ranks courses by completed payments
// GET /admin/sales/courses
func GetCourseSales(c *fiber.Ctx, store database.Storage) error {
	var sales []CourseSales
	err := store.GetDB().WithContext(c.UserContext()).
		Model(&model.Payment{}).
		Select("payments.course_id, courses.title, COUNT(*) AS sales, COALESCE(SUM(payments.amount), 0) AS revenue_minor_units").
		Joins("JOIN courses ON courses.id = payments.course_id").
		Where("payments.status = ?", model.PaymentStatusCompleted).
		Group("payments.course_id, courses.title").
		Order("revenue_minor_units DESC").
		Scan(&sales).Error
	if err != nil {
		return err
	}

	return response.Success(c, sales)
}

// ListPayments lists payments newest first, optionally by status
// GET /admin/payments?status=pending|completed
func ListPayments(c *fiber.Ctx, store database.Storage) error {
	query := store.GetDB().WithContext(c.UserContext()).Model(&model.Payment{})

	switch status := model.PaymentStatus(c.Query("status")); status {
	case "":
	case model.PaymentStatusPending, model.PaymentStatusCompleted:
		query = query.Where("status = ?", status)
	default:
		return response.BadRequest(c, "status must be pending or completed")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	pagination := response.CalculatePagination(c.QueryInt("page", 1), c.QueryInt("limit", 20), total)
	offset := (pagination.CurrentPage - 1) * pagination.PerPage

	var payments []model.Payment
	if err := query.Preload("Course").Order("created_at DESC, id DESC").Offset(offset).Limit(pagination.PerPage).Find(&payments).Error; err != nil {
		return err
	}

	return response.Paginated(c, payments, pagination)
}

// ListContactMessages lists contact form submissions newest first
// GET /admin/contact-messages
func ListContactMessages(c *fiber.Ctx, store database.Storage) error {
	query := store.GetDB().WithContext(c.UserContext()).Model(&model.ContactMessage{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	pagination := response.CalculatePagination(c.QueryInt("page", 1), c.QueryInt("limit", 20), total)
	offset := (pagination.CurrentPage - 1) * pagination.PerPage

	var messages []model.ContactMessage
	if err := query.Order("created_at DESC, id DESC").Offset(offset).Limit(pagination.PerPage).Find(&messages).Error; err != nil {
		return err
	}

	return response.Paginated(c, messages, pagination)
}
