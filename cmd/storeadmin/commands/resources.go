package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/storeadmin/internal/constants"
	"github.com/fivetwenty-io/storeadmin/pkg/admin"
	"github.com/fivetwenty-io/storeadmin/pkg/listcache"
)

// resourceGetter picks the resource client a command operates on.
type resourceGetter func(client admin.Client) (admin.ResourceClient, error)

func byName(resource string) resourceGetter {
	return func(client admin.Client) (admin.ResourceClient, error) {
		return client.Resource(resource)
	}
}

// NewResourceCommand creates the CRUD command group of a plain resource.
func NewResourceCommand(resource string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   resource,
		Short: "Manage " + resource,
		Long:  fmt.Sprintf("List, search, view, create, update and delete %s", resource),
	}

	addCRUDCommands(cmd, resource, byName(resource))

	return cmd
}

func addCRUDCommands(cmd *cobra.Command, resource string, getter resourceGetter) {
	cmd.AddCommand(newListCommand(resource, getter))
	cmd.AddCommand(newGetCommand(resource, getter))
	cmd.AddCommand(newCreateCommand(resource, getter))
	cmd.AddCommand(newUpdateCommand(resource, getter, false))
	cmd.AddCommand(newUpdateCommand(resource, getter, true))
	cmd.AddCommand(newDeleteCommand(resource, getter))
}

// withResource opens a session, resolves the resource and runs fn.
func withResource(cmd *cobra.Command, getter resourceGetter, fn func(ctx context.Context, sess *session, source admin.ResourceClient) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	sess, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	source, err := getter(sess.client)
	if err != nil {
		return fmt.Errorf("resolving resource: %w", err)
	}

	return fn(ctx, sess, source)
}

func newListCommand(resource string, getter resourceGetter) *cobra.Command {
	var (
		search string
		remote bool
		params map[string]string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List " + resource,
		Long: fmt.Sprintf(`List %s.

--search filters the fetched collection locally, matching every word of the
query case-insensitively. With --remote the backend search endpoint is used
instead.`, resource),
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withResource(cmd, getter, func(ctx context.Context, sess *session, source admin.ResourceClient) error {
				opts := []listcache.Option{
					listcache.WithAutoFetch(false),
					listcache.WithLogger(sess.logger),
					listcache.WithParams(params),
				}

				if resource == "products" && search != "" && !remote {
					// Category names are searchable once the lookup is loaded.
					if categories, err := sess.client.Categories().GetAll(ctx, nil); err == nil {
						opts = append(opts, listcache.WithCategories(categories.Data))
					}
				}

				cache := listcache.New(ctx, source, opts...)

				var err error
				if remote && search != "" {
					err = cache.SearchRemote(ctx, search)
				} else {
					cache.Search(search)
					err = cache.Refetch(ctx)
				}

				if err != nil {
					return err
				}

				snapshot := cache.Snapshot()
				reportWarnings(cmd.ErrOrStderr(), snapshot.Warnings)

				return renderList(cmd.OutOrStdout(), resource, snapshot.Items)
			})
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "filter by a search query")
	cmd.Flags().BoolVar(&remote, "remote", false, "search on the backend instead of locally")
	cmd.Flags().StringToStringVarP(&params, "param", "p", nil, "query parameter sent with the list request (key=value)")

	return cmd
}

func newGetCommand(resource string, getter resourceGetter) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Get one of " + resource,
		Long:  fmt.Sprintf("Display all fields of one of %s", resource),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withResource(cmd, getter, func(ctx context.Context, _ *session, source admin.ResourceClient) error {
				record, err := source.GetByID(ctx, args[0])
				if err != nil {
					return err
				}

				return renderRecord(cmd.OutOrStdout(), record)
			})
		},
	}
}

func newCreateCommand(resource string, getter resourceGetter) *cobra.Command {
	var data, file string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create one of " + resource,
		Long:  "Create a record from a JSON or YAML document given inline with --data or in a file with --file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := readData(cmd.InOrStdin(), data, file)
			if err != nil {
				return err
			}

			return withResource(cmd, getter, func(ctx context.Context, _ *session, source admin.ResourceClient) error {
				record, err := source.Create(ctx, payload)
				if err != nil {
					return err
				}

				return renderRecord(cmd.OutOrStdout(), record)
			})
		},
	}

	addDataFlags(cmd, &data, &file)

	return cmd
}

func newUpdateCommand(resource string, getter resourceGetter, partial bool) *cobra.Command {
	var data, file string

	use, short, long := "update ID", "Replace one of "+resource, "Replace a record with the given document (PUT)"
	if partial {
		use, short, long = "patch ID", "Partially update one of "+resource, "Change only the given fields of a record (PATCH)"
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long:  long,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := readData(cmd.InOrStdin(), data, file)
			if err != nil {
				return err
			}

			return withResource(cmd, getter, func(ctx context.Context, _ *session, source admin.ResourceClient) error {
				var (
					record admin.Record
					err    error
				)

				if partial {
					record, err = source.Patch(ctx, args[0], payload)
				} else {
					record, err = source.Update(ctx, args[0], payload)
				}

				if err != nil {
					return err
				}

				return renderRecord(cmd.OutOrStdout(), record)
			})
		},
	}

	addDataFlags(cmd, &data, &file)

	return cmd
}

func newDeleteCommand(resource string, getter resourceGetter) *cobra.Command {
	return &cobra.Command{
		Use:     "delete ID",
		Short:   "Delete one of " + resource,
		Long:    fmt.Sprintf("Delete one of %s by id", resource),
		Aliases: []string{"rm"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withResource(cmd, getter, func(ctx context.Context, _ *session, source admin.ResourceClient) error {
				err := source.Delete(ctx, args[0])
				if err != nil {
					return err
				}

				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s deleted\n", source.Entity(), args[0])

				return nil
			})
		},
	}
}

func addDataFlags(cmd *cobra.Command, data, file *string) {
	cmd.Flags().StringVarP(data, "data", "d", "", "record as an inline JSON or YAML document")
	cmd.Flags().StringVarP(file, "file", "f", "", "read the record from a JSON or YAML file, - for stdin")
}

// readData decodes the record given by --data or --file. JSON is accepted as
// a subset of YAML.
func readData(stdin io.Reader, data, file string) (admin.Record, error) {
	if data != "" && file != "" {
		return nil, constants.ErrDataConflict
	}

	var content []byte

	switch {
	case data != "":
		content = []byte(data)
	case file == "-":
		read, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}

		content = read
	case file != "":
		// #nosec G304 -- the path is chosen by the user running the CLI
		read, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", file, err)
		}

		content = read
	default:
		return nil, constants.ErrDataRequired
	}

	var record admin.Record

	err := yaml.Unmarshal(content, &record)
	if err != nil {
		return nil, fmt.Errorf("parsing record: %w", err)
	}

	if record == nil {
		return nil, constants.ErrDataRequired
	}

	return record, nil
}

func reportWarnings(w io.Writer, warnings []error) {
	for _, warning := range warnings {
		_, _ = fmt.Fprintf(w, "Warning: %v\n", warning)
	}
}
