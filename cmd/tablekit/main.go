/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Command tablekit uploads and deletes blobs and inspects table entities.
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/suparena/tablekit"
	"github.com/suparena/tablekit/blob"
	"github.com/suparena/tablekit/config"
	"github.com/suparena/tablekit/datastore/ddb"
	"github.com/suparena/tablekit/entity"
)

var (
	flagConfig = &cli.StringFlag{
		Name:  "config",
		Usage: "YAML configuration file",
	}
	flagEnvFile = &cli.StringSliceFlag{
		Name:  "env-file",
		Usage: "load environment variables from file (default .env when present)",
	}
	flagLogJSON = &cli.BoolFlag{
		Name:  "log-json",
		Usage: "log in JSON format",
	}
	flagLogDebug = &cli.BoolFlag{
		Name:  "log-debug",
		Usage: "log debug messages",
	}

	flagContainer = &cli.StringFlag{Name: "container", Required: true, Usage: "blob container name"}
	flagBlobName  = &cli.StringFlag{Name: "name", Required: true, Usage: "blob name"}
	flagTable     = &cli.StringFlag{Name: "table", Required: true, Usage: "table name"}
	flagPK        = &cli.StringFlag{Name: "pk", Required: true, Usage: "partition key"}
	flagRK        = &cli.StringFlag{Name: "rk", Required: true, Usage: "row key"}
)

func main() {
	app := &cli.App{
		Name:    "tablekit",
		Usage:   "table and blob storage helpers",
		Version: tablekit.Version,
		Flags:   []cli.Flag{flagConfig, flagEnvFile, flagLogJSON, flagLogDebug},
		Commands: []*cli.Command{
			{
				Name:  "version",
				Usage: "print version information",
				Action: func(cCtx *cli.Context) error {
					return printJSON(tablekit.GetVersionInfo())
				},
			},
			{
				Name:  "blob",
				Usage: "blob operations",
				Subcommands: []*cli.Command{
					{
						Name:  "upload",
						Usage: "upload a file as a block blob, creating the container if needed",
						Flags: []cli.Flag{
							flagContainer,
							flagBlobName,
							&cli.StringFlag{Name: "file", Required: true, Usage: "file to upload, - for stdin"},
							&cli.StringFlag{Name: "content-type", Usage: "blob content type"},
							&cli.StringFlag{Name: "content-encoding", Usage: "blob content encoding"},
						},
						Action: blobUpload,
					},
					{
						Name:  "delete",
						Usage: "delete a blob",
						Flags: []cli.Flag{
							flagContainer,
							flagBlobName,
							&cli.BoolFlag{Name: "if-exists", Usage: "do not fail when the blob does not exist"},
						},
						Action: blobDelete,
					},
				},
			},
			{
				Name:  "entity",
				Usage: "table entity operations",
				Subcommands: []*cli.Command{
					{
						Name:   "get",
						Usage:  "print an entity's properties as JSON",
						Flags:  []cli.Flag{flagTable, flagPK, flagRK},
						Action: entityGet,
					},
					{
						Name:  "delete",
						Usage: "delete an entity",
						Flags: []cli.Flag{
							flagTable, flagPK, flagRK,
							&cli.StringFlag{Name: "etag", Value: entity.AnyETag, Usage: "expected ETag"},
						},
						Action: entityDelete,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// setup loads the configuration and builds the logger.
func setup(cCtx *cli.Context) (config.Config, *slog.Logger, error) {
	var (
		cfg config.Config
		err error
	)
	if path := cCtx.String(flagConfig.Name); path != "" {
		cfg, err = config.LoadFile(path, cCtx.StringSlice(flagEnvFile.Name)...)
	} else {
		cfg, err = config.Load(cCtx.StringSlice(flagEnvFile.Name)...)
	}
	if err != nil {
		return cfg, nil, err
	}
	if cCtx.Bool(flagLogJSON.Name) {
		cfg.Log.JSON = true
	}
	if cCtx.Bool(flagLogDebug.Name) {
		cfg.Log.Debug = true
	}
	return cfg, config.NewLogger(cfg.Log, os.Stderr, tablekit.Version), nil
}

func blobClient(cCtx *cli.Context) (*blob.Client, *slog.Logger, error) {
	cfg, log, err := setup(cCtx)
	if err != nil {
		return nil, nil, err
	}
	if !cfg.HasBlobs() {
		return nil, nil, fmt.Errorf("no blob service configured, set TABLEKIT_BLOB_CONNECTION_STRING or TABLEKIT_BLOB_SERVICE_URL")
	}
	if err := cfg.Blobs.Validate(); err != nil {
		return nil, nil, err
	}
	client, err := blob.Open(cfg.Blobs.Blob(), blob.WithLogger(log))
	return client, log, err
}

func account(cCtx *cli.Context) (*tablekit.Account, *slog.Logger, error) {
	cfg, log, err := setup(cCtx)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Tables.Validate(); err != nil {
		return nil, nil, err
	}
	client, err := ddb.NewDynamoDBClient(cCtx.Context, cfg.Tables.DynamoDB())
	if err != nil {
		return nil, nil, err
	}
	a, err := tablekit.NewAccount(ddb.Opener(client, ddb.WithLogger(log)), tablekit.WithAccountLogger(log))
	return a, log, err
}

func blobUpload(cCtx *cli.Context) error {
	client, log, err := blobClient(cCtx)
	if err != nil {
		return err
	}

	in := os.Stdin
	if path := cCtx.String("file"); path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	start := time.Now()
	ref, err := client.UploadBlockBlobFromStream(cCtx.Context, cCtx.String(flagContainer.Name), cCtx.String(flagBlobName.Name), in, &blob.UploadOptions{
		ContentType:     cCtx.String("content-type"),
		ContentEncoding: cCtx.String("content-encoding"),
	})
	if err != nil {
		return err
	}
	log.Info("blob uploaded",
		slog.String("container", ref.Container),
		slog.String("blob", ref.Name),
		slog.Duration("took", time.Since(start)))
	return printJSON(ref)
}

func blobDelete(cCtx *cli.Context) error {
	client, log, err := blobClient(cCtx)
	if err != nil {
		return err
	}
	container, name := cCtx.String(flagContainer.Name), cCtx.String(flagBlobName.Name)

	if !cCtx.Bool("if-exists") {
		return client.DeleteBlob(cCtx.Context, container, name)
	}
	existed, err := client.DeleteBlobIfExists(cCtx.Context, container, name)
	if err != nil {
		return err
	}
	if !existed {
		log.Info("blob did not exist", slog.String("container", container), slog.String("blob", name))
	}
	return nil
}

type propertyJSON struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
}

type recordJSON struct {
	PartitionKey string                  `json:"PartitionKey"`
	RowKey       string                  `json:"RowKey"`
	ETag         string                  `json:"ETag"`
	Timestamp    time.Time               `json:"Timestamp"`
	Properties   map[string]propertyJSON `json:"Properties"`
}

func entityGet(cCtx *cli.Context) error {
	a, _, err := account(cCtx)
	if err != nil {
		return err
	}
	table, err := a.Table(cCtx.Context, cCtx.String(flagTable.Name))
	if err != nil {
		return err
	}
	rec, err := table.Retrieve(cCtx.Context, cCtx.String(flagPK.Name), cCtx.String(flagRK.Name))
	if err != nil {
		return err
	}

	out := recordJSON{
		PartitionKey: rec.PartitionKey,
		RowKey:       rec.RowKey,
		ETag:         rec.ETag,
		Timestamp:    rec.Timestamp,
		Properties:   make(map[string]propertyJSON, len(rec.Properties)),
	}
	for name, p := range rec.Properties {
		out.Properties[name] = propertyJSON{Type: p.Type.String(), Value: p.Value}
	}
	return printJSON(out)
}

func entityDelete(cCtx *cli.Context) error {
	a, log, err := account(cCtx)
	if err != nil {
		return err
	}
	table, err := a.Table(cCtx.Context, cCtx.String(flagTable.Name))
	if err != nil {
		return err
	}
	pk, rk := cCtx.String(flagPK.Name), cCtx.String(flagRK.Name)
	if err := table.Delete(cCtx.Context, pk, rk, cCtx.String("etag")); err != nil {
		return err
	}
	log.Info("entity deleted", slog.String("table", table.Name()), slog.String("partitionKey", pk), slog.String("rowKey", rk))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
