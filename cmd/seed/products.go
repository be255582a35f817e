package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/internal/db"
	"github.com/ikkim/storefront-backend/internal/importer"
	"github.com/spf13/cobra"
)

var (
	batchSize   int
	dryRun      bool
	assumeYes   bool
	showSkipped bool
)

func init() {
	productsCmd.Flags().IntVar(&batchSize, "batch-size", 500, "rows per insert statement")
	productsCmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse and validate without writing")
	productsCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "skip the confirmation prompt")
	productsCmd.Flags().BoolVar(&showSkipped, "show-skipped", false, "print every skipped row")
}

// seed products <file.xlsx>
var productsCmd = &cobra.Command{
	Use:   "products <file.xlsx>",
	Short: "Import catalog products from an XLSX workbook",
	Long: "Reads the first sheet of the workbook. The header row must contain name, " +
		"category, price, stock and image_url; description and sizes are optional.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		result, err := importer.ReadProducts(f)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "Sheet %q: %d products, %d rows skipped\n", result.Sheet, len(result.Products), len(result.Skipped))
		if showSkipped {
			for _, skipped := range result.Skipped {
				fmt.Fprintf(out, "  %s\n", skipped)
			}
		}

		if dryRun || len(result.Products) == 0 {
			return nil
		}

		if !assumeYes && !confirm(cmd) {
			fmt.Fprintln(out, "Import cancelled.")
			return nil
		}

		_, conn, err := bootDB()
		if err != nil {
			return err
		}
		defer db.Close()

		repo := repository.NewProductRepository(conn)
		if err := repo.BulkCreate(result.Products, batchSize); err != nil {
			return fmt.Errorf("import products: %w", err)
		}

		fmt.Fprintf(out, "Imported %d products.\n", len(result.Products))
		return nil
	},
}

func confirm(cmd *cobra.Command) bool {
	fmt.Fprint(cmd.OutOrStdout(), "Proceed with the import? (yes/no): ")
	answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "yes" || answer == "y"
}
