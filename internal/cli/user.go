package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/clinic-ledger-api/internal/domain/entity"
	"github.com/sangkips/clinic-ledger-api/internal/domain/repository"
	"github.com/sangkips/clinic-ledger-api/internal/infrastructure/database"
	infraRepo "github.com/sangkips/clinic-ledger-api/internal/infrastructure/repository"
	"github.com/sangkips/clinic-ledger-api/pkg/utils"
	"github.com/spf13/cobra"
)

const minPasswordLen = 8

// staffInput describes a staff account created from the command line
type staffInput struct {
	Email      string
	Password   string
	FirstName  string
	LastName   string
	Role       string
	ClinicCode string
}

func (in *staffInput) normalize() error {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Role = strings.TrimSpace(in.Role)
	in.ClinicCode = strings.ToUpper(strings.TrimSpace(in.ClinicCode))

	switch {
	case in.Email == "" || !strings.Contains(in.Email, "@"):
		return fmt.Errorf("a valid --email is required")
	case len(in.Password) < minPasswordLen:
		return fmt.Errorf("--password must be at least %d characters", minPasswordLen)
	case strings.TrimSpace(in.FirstName) == "":
		return fmt.Errorf("--first-name is required")
	case in.Role == "":
		return fmt.Errorf("--role is required")
	}
	return nil
}

// staffRepos are the stores createStaffUser writes through
type staffRepos struct {
	tx      repository.Transactor
	users   repository.UserRepository
	roles   repository.RoleRepository
	clinics repository.ClinicRepository
}

// createStaffUser creates the user and assigns its role in one transaction
func createStaffUser(ctx context.Context, repos staffRepos, in staffInput) (*entity.User, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		ID:        uuid.New(),
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     in.Email,
		Username:  strings.SplitN(in.Email, "@", 2)[0],
		Password:  hash,
	}

	err = repos.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := repos.users.GetByEmail(ctx, in.Email)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("user %s already exists", in.Email)
		}

		role, err := repos.roles.GetByName(ctx, in.Role)
		if err != nil {
			return err
		}
		if role == nil {
			return fmt.Errorf("unknown role %q, run the seed command first", in.Role)
		}

		if in.ClinicCode != "" {
			clinic, err := repos.clinics.GetByCode(ctx, in.ClinicCode)
			if err != nil {
				return err
			}
			if clinic == nil {
				return fmt.Errorf("unknown clinic %q", in.ClinicCode)
			}
			clinicID := clinic.ID
			user.ClinicID = &clinicID
		}

		if err := repos.users.Create(ctx, user); err != nil {
			return err
		}
		return repos.users.AssignRole(ctx, user.ID, role.ID)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func newUserCmd(load configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage staff accounts",
	}
	cmd.AddCommand(newUserCreateCmd(load))
	return cmd
}

func newUserCreateCmd(load configLoader) *cobra.Command {
	var in staffInput

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a cashier, accountant or admin account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// fail on bad flags before touching the database
			if err := in.normalize(); err != nil {
				return err
			}

			cfg := load()
			db, err := database.NewPostgresDB(&cfg.Database, cfg.App.Env)
			if err != nil {
				return err
			}

			user, err := createStaffUser(cmd.Context(), staffRepos{
				tx:      infraRepo.NewTransactor(db),
				users:   infraRepo.NewUserRepository(db),
				roles:   infraRepo.NewRoleRepository(db),
				clinics: infraRepo.NewClinicRepository(db),
			}, in)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s) with role %s\n", user.Email, user.ID, in.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Email, "email", "", "login email")
	cmd.Flags().StringVar(&in.Password, "password", "", "initial password")
	cmd.Flags().StringVar(&in.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&in.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&in.Role, "role", "cashier", "role: super-admin, accountant or cashier")
	cmd.Flags().StringVar(&in.ClinicCode, "clinic", "", "code of the clinic the user works at")
	return cmd
}
