// Package mcpserver exposes the contents manager as MCP (Model Context
// Protocol) tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/marmos91/nbcontents/pkg/contents"
	"github.com/marmos91/nbcontents/pkg/notebook"
)

// Server wraps the MCP server with the contents tools.
type Server struct {
	mcp *server.MCPServer
	mgr *contents.Manager
}

// New creates an MCP server with every contents tool registered.
func New(mgr *contents.Manager, version string) *Server {
	s := &Server{mgr: mgr}

	s.mcp = server.NewMCPServer(
		"nbcontents",
		version,
		server.WithToolCapabilities(false),
	)

	s.mcp.AddTool(mcp.NewTool("list_directory",
		mcp.WithDescription("List the visible entries of a directory."),
		mcp.WithString("path", mcp.Description("Directory path (empty for the root)")),
	), s.listDirectory)

	s.mcp.AddTool(mcp.NewTool("read_entry",
		mcp.WithDescription("Read a file or notebook. Notebooks are returned as nbformat JSON."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the file or notebook")),
		mcp.WithString("format", mcp.Description("File format: text or base64 (default: negotiate)")),
	), s.readEntry)

	s.mcp.AddTool(mcp.NewTool("write_file",
		mcp.WithDescription("Create or overwrite a file. Paths ending in .ipynb take nbformat JSON."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Destination path")),
		mcp.WithString("content", mcp.Required(), mcp.Description("File content")),
		mcp.WithString("format", mcp.Description("Content format: text (default) or base64")),
	), s.writeFile)

	s.mcp.AddTool(mcp.NewTool("make_directory",
		mcp.WithDescription("Create a directory. The parent must exist."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Directory path")),
	), s.makeDirectory)

	s.mcp.AddTool(mcp.NewTool("new_untitled",
		mcp.WithDescription("Create an empty entry with the next free untitled name."),
		mcp.WithString("path", mcp.Description("Directory to create it in (empty for the root)")),
		mcp.WithString("type", mcp.Description("file, notebook or directory (default: file)")),
		mcp.WithString("ext", mcp.Description("Extension for files, e.g. .py")),
	), s.newUntitled)

	s.mcp.AddTool(mcp.NewTool("copy_entry",
		mcp.WithDescription("Copy a file or notebook. A directory destination picks a -Copy name."),
		mcp.WithString("from", mcp.Required(), mcp.Description("Source path")),
		mcp.WithString("to", mcp.Description("Destination path or directory (default: same directory)")),
	), s.copyEntry)

	s.mcp.AddTool(mcp.NewTool("rename_entry",
		mcp.WithDescription("Rename or move an entry together with its checkpoints."),
		mcp.WithString("from", mcp.Required(), mcp.Description("Current path")),
		mcp.WithString("to", mcp.Required(), mcp.Description("New path")),
	), s.renameEntry)

	s.mcp.AddTool(mcp.NewTool("delete_entry",
		mcp.WithDescription("Delete a file, notebook or empty directory."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to delete")),
	), s.deleteEntry)

	s.mcp.AddTool(mcp.NewTool("create_checkpoint",
		mcp.WithDescription("Snapshot the current content of a file or notebook."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the document")),
	), s.createCheckpoint)

	s.mcp.AddTool(mcp.NewTool("list_checkpoints",
		mcp.WithDescription("List the checkpoints of a document."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the document")),
	), s.listCheckpoints)

	s.mcp.AddTool(mcp.NewTool("restore_checkpoint",
		mcp.WithDescription("Restore a document from its checkpoint."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the document")),
		mcp.WithString("id", mcp.Description("Checkpoint ID (default: "+contents.CheckpointID+")")),
	), s.restoreCheckpoint)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

type listing struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Type string `json:"type"`
}

func (s *Server) listDirectory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("path", "")
	e, err := s.mgr.Get(ctx, path, contents.GetOptions{Content: true, Kind: contents.KindDirectory})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	children, _ := e.Content.([]*contents.Entry)
	out := make([]listing, 0, len(children))
	for _, c := range children {
		out = append(out, listing{Name: c.Name, Path: strings.TrimPrefix(c.Path, "/"), Type: c.Kind.String()})
	}
	return jsonResult(out)
}

func (s *Server) readEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	format, err := contents.ParseFormat(req.GetString("format", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	e, err := s.mgr.Get(ctx, path, contents.GetOptions{Content: true, Format: format})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	switch content := e.Content.(type) {
	case string:
		return mcp.NewToolResultText(content), nil
	case *notebook.Notebook:
		text, err := notebook.Serialize(content)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(text), nil
	default:
		return mcp.NewToolResultError(fmt.Sprintf("%s is a %s, use list_directory", path, e.Kind)), nil
	}
}

func (s *Server) writeFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	model := &contents.Entry{Kind: contents.KindFile, Content: content}
	if strings.HasSuffix(path, notebook.Extension) {
		model.Kind = contents.KindNotebook
		model.Format = contents.FormatJSON
	} else {
		format, err := contents.ParseFormat(req.GetString("format", "text"))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		model.Format = format
	}

	e, err := s.mgr.Save(ctx, model, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if e.Message != "" {
		return mcp.NewToolResultText(fmt.Sprintf("saved: %s (%s)", path, e.Message)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("saved: %s", path)), nil
}

func (s *Server) makeDirectory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, err := s.mgr.Save(ctx, &contents.Entry{Kind: contents.KindDirectory}, path); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", path)), nil
}

func (s *Server) newUntitled(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind, err := contents.ParseKind(req.GetString("type", "file"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	e, err := s.mgr.NewUntitled(ctx, req.GetString("path", ""), kind, req.GetString("ext", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", strings.TrimPrefix(e.Path, "/"))), nil
}

func (s *Server) copyEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	from, err := req.RequireString("from")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	e, err := s.mgr.Copy(ctx, from, req.GetString("to", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("copied: %s", strings.TrimPrefix(e.Path, "/"))), nil
}

func (s *Server) renameEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	from, err := req.RequireString("from")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	to, err := req.RequireString("to")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.mgr.Rename(ctx, from, to); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("renamed: %s -> %s", from, to)), nil
}

func (s *Server) deleteEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.mgr.Delete(ctx, path); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", path)), nil
}

func (s *Server) createCheckpoint(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rec, err := s.mgr.CreateCheckpoint(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(rec)
}

func (s *Server) listCheckpoints(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	records, err := s.mgr.ListCheckpoints(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if records == nil {
		records = []*contents.CheckpointRecord{}
	}
	return jsonResult(records)
}

func (s *Server) restoreCheckpoint(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id := req.GetString("id", contents.CheckpointID)
	if err := s.mgr.RestoreCheckpoint(ctx, id, path); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("restored: %s from checkpoint %s", path, id)), nil
}
