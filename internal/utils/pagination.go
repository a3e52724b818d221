package utils

import (
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

var limitOptions = []int{10, 25, 50, 100}

type PaginationParams struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

type PaginationMeta struct {
	CurrentPage int  `json:"current_page"`
	PerPage     int  `json:"per_page"`
	Total       int  `json:"total"`
	LastPage    int  `json:"last_page"`
	From        int  `json:"from"`
	To          int  `json:"to"`
	HasMore     bool `json:"has_more"`
}

type PaginatedResponse struct {
	Success    bool           `json:"success"`
	Message    string         `json:"message"`
	Data       interface{}    `json:"data"`
	Pagination PaginationMeta `json:"pagination"`
}

// GetPaginationParams reads ?page and ?limit. Unknown limits fall back to 25.
func GetPaginationParams(c *fiber.Ctx) PaginationParams {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "25"))

	if page < 1 {
		page = 1
	}

	isValidLimit := false
	for _, validLimit := range limitOptions {
		if limit == validLimit {
			isValidLimit = true
			break
		}
	}
	if !isValidLimit {
		limit = 25
	}

	return PaginationParams{Page: page, Limit: limit}
}

func CalculatePagination(page, limit, total int) PaginationMeta {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 25
	}

	lastPage := int(math.Ceil(float64(total) / float64(limit)))
	from := (page-1)*limit + 1
	to := page * limit

	if total == 0 {
		from = 0
		to = 0
	} else if to > total {
		to = total
	}

	return PaginationMeta{
		CurrentPage: page,
		PerPage:     limit,
		Total:       total,
		LastPage:    lastPage,
		From:        from,
		To:          to,
		HasMore:     page < lastPage,
	}
}

func PaginatedResponseBuilder(c *fiber.Ctx, message string, data interface{}, pagination PaginationMeta) error {
	return c.JSON(PaginatedResponse{
		Success:    true,
		Message:    message,
		Data:       data,
		Pagination: pagination,
	})
}
