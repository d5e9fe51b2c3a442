package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	govalidator "github.com/go-playground/validator/v10"
	"github.com/stemsi/quizhub-backend/internal/config"
	"github.com/stemsi/quizhub-backend/internal/database"
	"github.com/stemsi/quizhub-backend/internal/logger"
	"github.com/stemsi/quizhub-backend/internal/model"
	"github.com/stemsi/quizhub-backend/internal/repository"
	"github.com/stemsi/quizhub-backend/internal/service"
	"github.com/stemsi/quizhub-backend/internal/validator"
	"golang.org/x/term"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	students := repository.NewStudentRepository(pool)
	passwords := service.NewPasswordService(cfg.BcryptCost)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create Student Account ===")

	fmt.Print("Enter Full Name: ")
	name, _ := reader.ReadString('\n')

	fmt.Print("Enter Email: ")
	email, _ := reader.ReadString('\n')

	fmt.Print("Enter Password: ")
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		fmt.Println("Error reading password")
		return
	}

	fmt.Print("Confirm Password: ")
	confirm, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		fmt.Println("Error reading password")
		return
	}

	req := model.RegisterRequest{
		FullName:        strings.TrimSpace(name),
		Email:           strings.TrimSpace(email),
		Password:        string(pw),
		ConfirmPassword: string(confirm),
	}

	// Same rules as the registration endpoint.
	if err := validator.Standalone().Struct(req); err != nil {
		var ve govalidator.ValidationErrors
		if errors.As(err, &ve) {
			for _, fe := range ve {
				fmt.Printf("Error: %s fails %q\n", fe.Field(), fe.Tag())
			}
			return
		}
		log.Fatal().Err(err).Msg("Validation failed")
	}

	// ─── Logic ─────────────────────────────────────────────────────────
	hash, err := passwords.Hash(req.Password)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}

	student := &model.Student{
		FullName:     req.FullName,
		Email:        repository.NormalizeEmail(req.Email),
		PasswordHash: hash,
	}
	if err := students.Create(ctx, student); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			fmt.Printf("Error: %s is already registered\n", student.Email)
			return
		}
		log.Fatal().Err(err).Msg("Failed to create student")
	}

	fmt.Printf("\nSuccess! Student '%s' (%s) created with ID: %d\n", student.FullName, student.Email, student.ID)
}
