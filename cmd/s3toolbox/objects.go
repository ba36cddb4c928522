package main

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/thebluefowl/s3toolbox/internal/progress"
	"github.com/thebluefowl/s3toolbox/internal/storage"
)

var (
	putPrefix      string
	putContentType string
	rmYes          bool
)

var bucketsCmd = &cobra.Command{
	Use:   "buckets",
	Short: "List buckets",
	Args:  cobra.NoArgs,
	RunE:  runBuckets,
}

var lsCmd = &cobra.Command{
	Use:   "ls <bucket> [prefix]",
	Short: "List object keys in a bucket",
	Long:  `Lists the keys of the first listing page, optionally filtered by prefix.`,
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runLs,
}

var statCmd = &cobra.Command{
	Use:   "stat <bucket> <key>",
	Short: "Show object metadata",
	Args:  cobra.ExactArgs(2),
	RunE:  runStat,
}

var getCmd = &cobra.Command{
	Use:   "get <bucket> <key> [destination]",
	Short: "Download an object to a local file",
	Long:  `Downloads an object. The destination defaults to the last path segment of the key.`,
	Args:  cobra.RangeArgs(2, 3),
	RunE:  runGet,
}

var putCmd = &cobra.Command{
	Use:   "put <bucket> <file>",
	Short: "Upload a local file",
	Long:  `Uploads a local file as prefix + file name. The prefix is used as-is, so end it with "/" to upload into a folder.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runPut,
}

var rmCmd = &cobra.Command{
	Use:   "rm <bucket> <key>",
	Short: "Delete an object",
	Args:  cobra.ExactArgs(2),
	RunE:  runRm,
}

func init() {
	putCmd.Flags().StringVarP(&putPrefix, "prefix", "p", "", "key prefix, e.g. invoices/2025/")
	putCmd.Flags().StringVar(&putContentType, "content-type", "", "MIME type (detected from the file extension when empty)")
	rmCmd.Flags().BoolVarP(&rmYes, "yes", "y", false, "delete without asking for confirmation")
}

func runBuckets(cmd *cobra.Command, args []string) error {
	svc, err := commandService(cmd.Context())
	if err != nil {
		return err
	}

	names, err := svc.ListBuckets(cmd.Context())
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func runLs(cmd *cobra.Command, args []string) error {
	svc, err := commandService(cmd.Context())
	if err != nil {
		return err
	}

	prefix := ""
	if len(args) == 2 {
		prefix = args[1]
	}

	keys, err := svc.ListObjects(cmd.Context(), args[0], prefix)
	if err != nil {
		return err
	}
	for _, key := range keys {
		fmt.Println(key)
	}
	return nil
}

func runStat(cmd *cobra.Command, args []string) error {
	svc, err := commandService(cmd.Context())
	if err != nil {
		return err
	}

	md, err := svc.GetObjectMetadata(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}

	fmt.Println(renderMetadata(args[0], args[1], md))
	return nil
}

// renderMetadata formats md as a bordered box.
func renderMetadata(bucket, key string, md *storage.ObjectMetadata) string {
	var b strings.Builder
	fmt.Fprintf(&b, "s3://%s/%s\n\n", bucket, key)
	fmt.Fprintf(&b, "Content-Type:   %s\n", md.ContentType)
	fmt.Fprintf(&b, "Content-Length: %d\n", md.ContentLength)
	fmt.Fprintf(&b, "Last-Modified:  %s\n", md.LastModified.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "ETag:           %s\n", md.ETag)
	fmt.Fprintf(&b, "Storage-Class:  %s", md.StorageClass)

	keys := make([]string, 0, len(md.CustomMetadata))
	for k := range md.CustomMetadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > 0 {
		b.WriteString("\n\nMetadata:")
		for _, k := range keys {
			fmt.Fprintf(&b, "\n  %s: %s", k, md.CustomMetadata[k])
		}
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1).
		BorderForeground(lipgloss.Color("63")).
		Render(b.String())
}

func runGet(cmd *cobra.Command, args []string) error {
	svc, err := commandService(cmd.Context())
	if err != nil {
		return err
	}

	obj, err := svc.GetObject(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}

	dest := obj.FileName
	if len(args) == 3 {
		dest = args[2]
	}
	if dest == "" {
		return fmt.Errorf("cannot derive a file name from key %q, pass a destination", args[1])
	}

	if err := writeFile(dest, obj.Content); err != nil {
		return err
	}

	color.Green("✓ Successfully downloaded s3://%s/%s to %s\n", args[0], args[1], dest)
	return nil
}

// writeFile writes content to dest, removing the file if the write fails.
func writeFile(dest string, content []byte) (err error) {
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create file %s: %w", dest, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close file %s: %w", dest, cerr)
		}
		if err != nil {
			_ = os.Remove(dest)
		}
	}()

	if _, err := progress.Copy(f, bytes.NewReader(content), "Writing", int64(len(content))); err != nil {
		return fmt.Errorf("write file %s: %w", dest, err)
	}
	return nil
}

func runPut(cmd *cobra.Command, args []string) error {
	bucket, path := args[0], args[1]

	req, err := storeRequestFromFile(bucket, path, putPrefix, putContentType)
	if err != nil {
		return err
	}

	svc, err := commandService(cmd.Context())
	if err != nil {
		return err
	}

	res, err := svc.PutObject(cmd.Context(), *req)
	if err != nil {
		return err
	}

	color.Green("✓ Successfully uploaded to s3://%s/%s (ETag %s)\n", bucket, req.Key(), res.ETag)
	return nil
}

// storeRequestFromFile reads path and builds the upload request for it.
func storeRequestFromFile(bucket, path, prefix, contentType string) (*storage.StoreRequest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file %s: %w", path, err)
	}
	defer f.Close()

	size := int64(-1)
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}

	var encoded bytes.Buffer
	enc := base64.NewEncoder(base64.StdEncoding, &encoded)
	if _, err := progress.Copy(enc, f, "Reading", size); err != nil {
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode file %s: %w", path, err)
	}

	name := filepath.Base(path)
	if contentType == "" {
		contentType = detectContentType(name)
	}

	return &storage.StoreRequest{
		BucketName:    bucket,
		Prefix:        prefix,
		FileName:      name,
		ContentType:   contentType,
		Base64Content: encoded.String(),
	}, nil
}

func detectContentType(name string) string {
	if ext := filepath.Ext(name); ext != "" {
		if ct := mime.TypeByExtension(ext); ct != "" {
			return ct
		}
	}
	return "application/octet-stream"
}

func runRm(cmd *cobra.Command, args []string) error {
	bucket, key := args[0], args[1]

	if !rmYes {
		confirmed := false
		prompt := &survey.Confirm{Message: fmt.Sprintf("Delete s3://%s/%s?", bucket, key)}
		if err := survey.AskOne(prompt, &confirmed); err != nil {
			return err
		}
		if !confirmed {
			color.Yellow("Aborted")
			return nil
		}
	}

	svc, err := commandService(cmd.Context())
	if err != nil {
		return err
	}
	if err := svc.DeleteObject(cmd.Context(), bucket, key); err != nil {
		return err
	}

	color.Green("✓ Deleted s3://%s/%s\n", bucket, key)
	return nil
}
