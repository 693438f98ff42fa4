package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"car-inventory-api/internal/constants"
	"car-inventory-api/internal/models"
)

func newListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all cars",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.newClient()
			if err != nil {
				return err
			}
			defer c.Close()

			cars, err := c.ListCars(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, cars)
		},
	}
}

func newGetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one car",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.newClient()
			if err != nil {
				return err
			}
			defer c.Close()

			car, err := c.GetCar(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, car)
		},
	}
}

func newCreateCommand(opts *RootOptions) *cobra.Command {
	var input models.CarInput

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add a car",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.newClient()
			if err != nil {
				return err
			}
			defer c.Close()

			car, err := c.CreateCar(cmd.Context(), input)
			if err != nil {
				return err
			}
			return printJSON(cmd, car)
		},
	}

	cmd.Flags().StringVar(&input.Brand, "brand", "", "car brand")
	cmd.Flags().StringVar(&input.Model, "model", "", "car model")
	cmd.Flags().IntVar(&input.Year, "year", 0, "model year")
	_ = cmd.MarkFlagRequired("brand")
	_ = cmd.MarkFlagRequired("model")
	_ = cmd.MarkFlagRequired("year")

	return cmd
}

// newUpdateCommand sends only the flags given on the command line.
func newUpdateCommand(opts *RootOptions) *cobra.Command {
	var (
		brand, model string
		year         int
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a car",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch models.CarPatch
			if cmd.Flags().Changed("brand") {
				patch.Brand = &brand
			}
			if cmd.Flags().Changed("model") {
				patch.Model = &model
			}
			if cmd.Flags().Changed("year") {
				patch.Year = &year
			}
			if patch.IsEmpty() {
				return fmt.Errorf("nothing to update: set at least one of --brand, --model, --year")
			}

			c, err := opts.newClient()
			if err != nil {
				return err
			}
			defer c.Close()

			car, err := c.UpdateCar(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			return printJSON(cmd, car)
		},
	}

	cmd.Flags().StringVar(&brand, "brand", "", "new brand")
	cmd.Flags().StringVar(&model, "model", "", "new model")
	cmd.Flags().IntVar(&year, "year", 0, "new model year")

	return cmd
}

func newDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a car",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.newClient()
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.DeleteCar(cmd.Context(), args[0]); err != nil {
				return err
			}
			return printJSON(cmd, map[string]string{"message": constants.CarDeletedMessage})
		},
	}
}
