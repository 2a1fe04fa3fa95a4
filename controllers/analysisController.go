package controllers

import (
	"encoding/json"
	"log"
	"strings"

	"loanrisk-backend/database"
	"loanrisk-backend/llm"
	"loanrisk-backend/middlewares"
	"loanrisk-backend/models"
	"loanrisk-backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
)

// Analyzer is bound to the Groq-backed client at startup; tests install a stub.
var Analyzer llm.Analyzer

func CreateAnalysis(c *fiber.Ctx) error {
	user := middlewares.CurrentUser(c)

	input, phone, err := utils.NormalizeAnalysisRequest(c.Body())
	if err != nil {
		return err
	}

	blob, err := json.Marshal(input)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	// Durable pending row before the external call: a downstream failure is
	// recorded against this row, never lost.
	analysis := models.Analysis{
		UserID:        user.Id,
		CustomerInput: datatypes.JSON(blob),
		CustomerPhone: phone,
		Status:        models.StatusPending,
	}
	if err := database.Analyses.Create(&analysis); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not create analysis")
	}

	result, err := Analyzer.AnalyzeLoan(c.UserContext(), input)
	if err != nil {
		if saveErr := database.Analyses.SaveResult(analysis.Id, map[string]any{"error": err.Error()}); saveErr != nil {
			log.Printf("could not persist analysis error for %s: %v", analysis.Id, saveErr)
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Failed to analyze loan application",
			"detail": err.Error(),
		})
	}

	if err := database.Analyses.SaveResult(analysis.Id, result); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not store analysis result")
	}

	stored, err := database.Analyses.GetByOwner(analysis.Id, user.Id, user.IsStaff)
	if err != nil {
		return err
	}
	stored.UserEmail = user.Email
	return c.Status(fiber.StatusCreated).JSON(stored)
}

func GetAnalyses(c *fiber.Ctx) error {
	user := middlewares.CurrentUser(c)

	rows, err := database.Analyses.ListByOwner(user.Id, user.IsStaff)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not list analyses")
	}
	for i := range rows {
		if rows[i].UserID == user.Id {
			rows[i].UserEmail = user.Email
		}
	}
	return c.JSON(rows)
}

func GetAnalysis(c *fiber.Ctx) error {
	user := middlewares.CurrentUser(c)

	// Lookups outside the caller's ownership scope surface as 404.
	row, err := database.Analyses.GetByOwner(c.Params("id"), user.Id, user.IsStaff)
	if err != nil {
		return err
	}
	if row.UserID == user.Id {
		row.UserEmail = user.Email
	}
	return c.JSON(row)
}

func DeleteAnalysis(c *fiber.Ctx) error {
	user := middlewares.CurrentUser(c)

	if err := database.Analyses.DeleteByOwner(c.Params("id"), user.Id, user.IsStaff); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type statusUpdateDTO struct {
	Status string `json:"status" validate:"required"`
}

// UpdateAnalysisStatus performs the manual lifecycle transition. The LLM call
// itself never touches status.
func UpdateAnalysisStatus(c *fiber.Ctx) error {
	user := middlewares.CurrentUser(c)

	var dto statusUpdateDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	if !models.ValidStatus(dto.Status) {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "invalid status")
	}

	row, err := database.Analyses.GetByOwner(c.Params("id"), user.Id, user.IsStaff)
	if err != nil {
		return err
	}
	if err := database.Analyses.UpdateStatus(row.Id, dto.Status); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not update status")
	}

	row.Status = dto.Status
	if row.UserID == user.Id {
		row.UserEmail = user.Email
	}
	return c.JSON(row)
}

type processTextDTO struct {
	Text string `json:"text"`
}

// ProcessText converts a natural-language application description into the
// structured input shape. Nothing is persisted.
func ProcessText(c *fiber.Ctx) error {
	var dto processTextDTO
	if err := c.BodyParser(&dto); err != nil || strings.TrimSpace(dto.Text) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No text provided"})
	}

	structured, err := Analyzer.ExtractApplication(c.UserContext(), dto.Text)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(structured)
}
