package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/asakaida/monban/internal/entities"
	"github.com/asakaida/monban/internal/services/accesscontrol"
	"github.com/spf13/cobra"
)

var (
	configFlag     string
	userFlag       string
	credentialFlag string

	manager *accesscontrol.AccessControlManager
)

var rootCmd = &cobra.Command{
	Use:   "monban",
	Short: "Rule document tool for Monban",
	Long: `Rule document tool for Monban.
Validates access control rule documents and evaluates ad-hoc checks
and filters against them.`,
	PersistentPreRun: setupManager,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a rule document",
	Long:  `Load and compile the rule document, reporting configuration errors.`,
	Run:   runValidate,
}

var checkCmd = &cobra.Command{
	Use:   "check <action> <resource...>",
	Short: "Evaluate a single authorization check",
	Long: `Evaluate a single authorization check for the given principal.
Exits 0 when the action is allowed and 1 when it is denied.

Actions: access-catalog, show-schemas, create-schema, drop-schema,
rename-schema, create-table, drop-table, select, insert, delete,
add-columns, rename-column, create-view, drop-view, select-view,
set-session-property, grant, revoke.`,
	Args: cobra.MinimumNArgs(2),
	Run:  runCheck,
}

var filterCatalogsCmd = &cobra.Command{
	Use:   "filter-catalogs <catalog...>",
	Short: "Filter catalogs visible to the principal",
	Args:  cobra.MinimumNArgs(1),
	Run:   runFilterCatalogs,
}

var filterSchemasCmd = &cobra.Command{
	Use:   "filter-schemas <catalog> <schema...>",
	Short: "Filter schemas of a catalog visible to the principal",
	Args:  cobra.MinimumNArgs(2),
	Run:   runFilterSchemas,
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "path to the rule document (required)")
	rootCmd.PersistentFlags().StringVar(&userFlag, "user", "", "principal name to evaluate as")
	rootCmd.PersistentFlags().StringVar(&credentialFlag, "credential", "", "optional credential identity of the principal")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(filterCatalogsCmd)
	rootCmd.AddCommand(filterSchemasCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupManager(cmd *cobra.Command, args []string) {
	if configFlag == "" {
		log.Fatalf("--config is required")
	}

	manager = accesscontrol.NewAccessControlManager()
	options := map[string]string{
		accesscontrol.ConfigFileOption: configFlag,
	}
	if err := manager.SetSystemAccessControl(accesscontrol.FileBasedAccessControlName, options); err != nil {
		log.Fatalf("Failed to load rule document: %v", err)
	}
}

func runValidate(cmd *cobra.Command, args []string) {
	// setupManager already loaded and compiled the document
	fmt.Printf("OK: %s\n", configFlag)
}

func principal() *entities.Principal {
	if userFlag == "" {
		log.Fatalf("--user is required")
	}
	return &entities.Principal{Name: userFlag, Credential: credentialFlag}
}

func runCheck(cmd *cobra.Command, args []string) {
	p := principal()
	action := args[0]
	resources := args[1:]

	var err error
	const txn = entities.TransactionID("cli")

	switch action {
	case "access-catalog":
		err = manager.CheckCanAccessCatalog(txn, p, resources[0])
	case "show-schemas":
		err = manager.CheckCanShowSchemas(txn, p, resources[0])
	case "create-schema":
		err = manager.CheckCanCreateSchema(txn, p, parseSchema(resources[0]))
	case "drop-schema":
		err = manager.CheckCanDropSchema(txn, p, parseSchema(resources[0]))
	case "rename-schema":
		if len(resources) < 2 {
			log.Fatalf("rename-schema requires <catalog.schema> <new-name>")
		}
		err = manager.CheckCanRenameSchema(txn, p, parseSchema(resources[0]), resources[1])
	case "create-table":
		err = manager.CheckCanCreateTable(txn, p, parseTable(resources[0]))
	case "drop-table":
		err = manager.CheckCanDropTable(txn, p, parseTable(resources[0]))
	case "select":
		err = manager.CheckCanSelectFromTable(txn, p, parseTable(resources[0]))
	case "insert":
		err = manager.CheckCanInsertIntoTable(txn, p, parseTable(resources[0]))
	case "delete":
		err = manager.CheckCanDeleteFromTable(txn, p, parseTable(resources[0]))
	case "add-columns":
		err = manager.CheckCanAddColumns(txn, p, parseTable(resources[0]))
	case "rename-column":
		err = manager.CheckCanRenameColumn(txn, p, parseTable(resources[0]))
	case "create-view":
		err = manager.CheckCanCreateView(txn, p, parseTable(resources[0]))
	case "drop-view":
		err = manager.CheckCanDropView(txn, p, parseTable(resources[0]))
	case "select-view":
		err = manager.CheckCanSelectFromView(txn, p, parseTable(resources[0]))
	case "set-session-property":
		if len(resources) < 2 {
			log.Fatalf("set-session-property requires <catalog> <property>")
		}
		err = manager.CheckCanSetCatalogSessionProperty(txn, p, resources[0], resources[1])
	case "grant", "revoke":
		if len(resources) < 2 {
			log.Fatalf("%s requires <privilege> <catalog.schema.table>", action)
		}
		privilege, parseErr := entities.ParsePrivilege(resources[0])
		if parseErr != nil {
			log.Fatalf("%v", parseErr)
		}
		if action == "grant" {
			err = manager.CheckCanGrantTablePrivilege(txn, p, privilege, parseTable(resources[1]), "grantee", true)
		} else {
			err = manager.CheckCanRevokeTablePrivilege(txn, p, privilege, parseTable(resources[1]), "revokee", true)
		}
	default:
		log.Fatalf("unknown action: %s", action)
	}

	if err != nil {
		if errors.Is(err, accesscontrol.ErrAccessDenied) {
			fmt.Println(err)
			os.Exit(1)
		}
		log.Fatalf("Check failed: %v", err)
	}
	fmt.Println("allowed")
}

func runFilterCatalogs(cmd *cobra.Command, args []string) {
	p := principal()
	visible, err := manager.FilterCatalogs(entities.TransactionID("cli"), p, args)
	if err != nil {
		log.Fatalf("Filter failed: %v", err)
	}
	for _, catalog := range visible {
		fmt.Println(catalog)
	}
}

func runFilterSchemas(cmd *cobra.Command, args []string) {
	p := principal()
	visible, err := manager.FilterSchemas(entities.TransactionID("cli"), p, args[0], args[1:])
	if err != nil {
		log.Fatalf("Filter failed: %v", err)
	}
	for _, schema := range visible {
		fmt.Println(schema)
	}
}

func parseSchema(s string) entities.SchemaName {
	parts := strings.SplitN(s, ".", 2)
	if len(parts) != 2 {
		log.Fatalf("invalid schema reference %q (want catalog.schema)", s)
	}
	return entities.SchemaName{Catalog: parts[0], Schema: parts[1]}
}

func parseTable(s string) entities.TableName {
	parts := strings.SplitN(s, ".", 3)
	if len(parts) != 3 {
		log.Fatalf("invalid table reference %q (want catalog.schema.table)", s)
	}
	return entities.TableName{Catalog: parts[0], Schema: parts[1], Table: parts[2]}
}
