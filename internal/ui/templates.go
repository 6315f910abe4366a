package ui

import (
	"fmt"
	"html/template"
	"io"
	"path/filepath"
	"strings"
	"time"
)

// Template functions available in all templates.
var templateFuncs = template.FuncMap{
	"formatTime": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.Local().Format("2006-01-02 15:04:05")
	},
	"formatTimePtr": func(t *time.Time) string {
		if t == nil || t.IsZero() {
			return "-"
		}
		return t.Local().Format("2006-01-02 15:04:05")
	},
	"stateColor": func(state fmt.Stringer) string {
		switch strings.ToUpper(state.String()) {
		case "PENDING", "SUBMITTING":
			return "yellow"
		case "COMPLETED", "RESULT_AVAILABLE":
			return "green"
		case "FAILED", "SUBMISSION_FAILED":
			return "red"
		case "DIRTY":
			return "blue"
		default:
			return "gray"
		}
	},
	"add": func(a, b int) int {
		return a + b
	},
	"fieldName": func(name string) string {
		return "v:" + name
	},
	"cellName": func(name string, row, col int) string {
		return fmt.Sprintf("c:%s:%d:%d", name, row, col)
	},
	"truncate": func(s string, n int) string {
		if len(s) <= n {
			return s
		}
		return s[:n] + "..."
	},
}

// renderTemplate renders a template with the given data.
func renderTemplate(w io.Writer, name string, data map[string]any) error {
	content, ok := templates[name]
	if !ok {
		return fmt.Errorf("template not found: %s", name)
	}

	layout, ok := templates["layout"]
	if !ok {
		return fmt.Errorf("layout template not found")
	}

	tmpl, err := template.New("layout").Funcs(templateFuncs).Parse(layout)
	if err != nil {
		return fmt.Errorf("parse layout: %w", err)
	}

	_, err = tmpl.New("content").Parse(content)
	if err != nil {
		return fmt.Errorf("parse content: %w", err)
	}

	// Add shared components.
	for compName, compContent := range templates {
		if strings.HasPrefix(compName, "components/") {
			_, err = tmpl.New(filepath.Base(compName)).Parse(compContent)
			if err != nil {
				return fmt.Errorf("parse component %s: %w", compName, err)
			}
		}
	}

	return tmpl.Execute(w, data)
}

var templates = map[string]string{
	"layout": `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <script src="https://cdn.tailwindcss.com"></script>
</head>
<body class="bg-gray-50 min-h-screen">
    <nav class="bg-white shadow-sm border-b">
        <div class="max-w-7xl mx-auto px-4 sm:px-6 lg:px-8">
            <div class="flex h-16">
                <a href="/" class="flex items-center px-2 py-2 text-xl font-bold text-indigo-600">schedlab</a>
                <div class="hidden sm:ml-6 sm:flex sm:space-x-8">
                    <a href="/" class="border-transparent text-gray-500 hover:border-gray-300 hover:text-gray-700 inline-flex items-center px-1 pt-1 border-b-2 text-sm font-medium">
                        Algorithms
                    </a>
                    <a href="/runs" class="border-transparent text-gray-500 hover:border-gray-300 hover:text-gray-700 inline-flex items-center px-1 pt-1 border-b-2 text-sm font-medium">
                        Runs
                    </a>
                </div>
            </div>
        </div>
    </nav>

    <main class="max-w-7xl mx-auto py-6 sm:px-6 lg:px-8">
        {{template "content" .}}
    </main>
</body>
</html>`,

	"error": `{{define "content"}}
<div class="min-h-screen flex items-center justify-center">
    <div class="text-center">
        <h1 class="text-4xl font-bold text-gray-900 mb-4">Error</h1>
        <p class="text-gray-600 mb-8">{{.Message}}</p>
        <a href="/" class="text-indigo-600 hover:text-indigo-500">Back to algorithms</a>
    </div>
</div>
{{end}}`,

	"index": `{{define "content"}}
<div class="px-4 py-6 sm:px-0">
    <h1 class="text-2xl font-semibold text-gray-900 mb-6">Algorithms</h1>
    {{if .Error}}
    <div class="rounded-md bg-red-50 p-4 mb-6">
        <div class="text-sm text-red-700">{{.Error}}</div>
    </div>
    {{end}}
    <div class="bg-white shadow overflow-hidden sm:rounded-md">
        <ul class="divide-y divide-gray-200">
            {{range .Algorithms}}
            <li id="algorithm-{{.Name}}">
                <a href="/algorithms/{{.Name}}" class="block px-4 py-4 sm:px-6 hover:bg-gray-50">
                    <p class="text-sm font-medium text-indigo-600 truncate">{{or .Title .Name}}</p>
                    {{if .Description}}<p class="mt-1 text-sm text-gray-500">{{.Description}}</p>{{end}}
                    {{if .Tags}}
                    <div class="mt-2 flex flex-wrap gap-1">
                        {{range .Tags}}<span class="inline-flex items-center px-2 py-0.5 rounded text-xs font-medium bg-indigo-100 text-indigo-800">{{.}}</span>{{end}}
                    </div>
                    {{end}}
                </a>
            </li>
            {{else}}
            {{if not $.Error}}<li class="px-4 py-8 text-center text-gray-500">No algorithms available.</li>{{end}}
            {{end}}
        </ul>
    </div>
</div>
{{end}}`,

	"algorithm": `{{define "content"}}
<div class="px-4 py-6 sm:px-0">
    {{if .Notice}}
    <div class="rounded-md bg-yellow-50 p-4 mb-6">
        <div class="text-sm text-yellow-800">{{.Notice}}</div>
        {{if .Form.Errors}}
        <ul class="mt-2 list-disc list-inside text-sm text-yellow-800">
            {{range .Form.Errors}}<li>{{.Field}}: {{.Message}}</li>{{end}}
        </ul>
        {{end}}
    </div>
    {{end}}

    {{with .Form.Algorithm}}
    <div class="mb-6">
        <div class="flex items-center">
            <h1 class="text-2xl font-semibold text-gray-900">{{or .Title .Name}}</h1>
            <span class="ml-3 inline-flex items-center px-2.5 py-0.5 rounded-full text-xs font-medium bg-{{stateColor $.Form.State}}-100 text-{{stateColor $.Form.State}}-800">
                {{$.Form.State}}
            </span>
        </div>
        {{if .Description}}<p class="mt-1 text-sm text-gray-500">{{.Description}}</p>{{end}}
        {{if .Notes}}<p class="mt-2 text-sm text-gray-600 whitespace-pre-line">{{.Notes}}</p>{{end}}
        {{if .Tags}}
        <div class="mt-2 flex flex-wrap gap-1">
            {{range .Tags}}<span class="inline-flex items-center px-2 py-0.5 rounded text-xs font-medium bg-indigo-100 text-indigo-800">{{.}}</span>{{end}}
        </div>
        {{end}}
    </div>

    {{if $.Form.LastError}}
    <div class="rounded-md bg-red-50 p-4 mb-6">
        <div class="text-sm text-red-700">{{$.Form.LastError}}</div>
    </div>
    {{end}}

    <form method="POST" action="/algorithms/{{.Name}}" class="bg-white shadow rounded-lg p-6">
        <div class="grid grid-cols-1 gap-4 sm:grid-cols-2">
            {{range $.Form.Fields}}
            <div>
                <label class="block text-sm font-medium text-gray-700">{{.Title}}</label>
                {{if eq .InputType "checkbox"}}
                <input type="hidden" name="{{fieldName .Name}}" value="0">
                <input type="checkbox" name="{{fieldName .Name}}" value="1" {{if .Checked}}checked{{end}}
                       class="mt-2 h-4 w-4 text-indigo-600 border-gray-300 rounded">
                {{else}}
                <input type="{{.InputType}}" name="{{fieldName .Name}}" value="{{.Value}}"
                       {{if eq .InputType "number"}}step="{{.Step}}"{{end}}
                       {{if .Min}}min="{{.Min}}"{{end}} {{if .Max}}max="{{.Max}}"{{end}}
                       class="mt-1 block w-full border border-gray-300 rounded-md shadow-sm py-2 px-3 sm:text-sm {{if .Error}}border-red-500{{end}}">
                {{end}}
                {{if .Description}}<p class="mt-1 text-xs text-gray-500">{{.Description}}</p>{{end}}
                {{if .Error}}<p class="mt-1 text-sm text-red-600">{{.Error}}</p>{{end}}
            </div>
            {{end}}
        </div>

        {{range $.Form.Matrices}}{{template "matrix" .}}{{end}}

        <div class="mt-6 flex space-x-3">
            <button type="submit" name="action" value="update"
                    class="inline-flex items-center px-4 py-2 border border-gray-300 text-sm font-medium rounded-md text-gray-700 bg-white hover:bg-gray-50">
                Update
            </button>
            <button type="submit" name="action" value="submit" {{if not $.Form.Submittable}}disabled{{end}}
                    class="inline-flex items-center px-4 py-2 border border-transparent text-sm font-medium rounded-md shadow-sm text-white bg-indigo-600 hover:bg-indigo-700 disabled:opacity-50">
                Run
            </button>
        </div>
    </form>
    {{else}}
    <p class="text-gray-500">No algorithm is loaded. <a href="/" class="text-indigo-600 hover:text-indigo-500">Pick one</a>.</p>
    {{end}}

    {{if .Form.Outputs}}
    <div class="bg-white shadow rounded-lg p-6 mt-6">
        <h2 class="text-lg font-medium text-gray-900 mb-2">Results</h2>
        {{template "values" .Form.Outputs}}
    </div>
    {{end}}
    {{with .Form.Gantt}}{{template "gantt" .}}{{end}}
</div>
{{end}}`,

	"runs/list": `{{define "content"}}
<div class="px-4 py-6 sm:px-0">
    <h1 class="text-2xl font-semibold text-gray-900 mb-6">Runs</h1>
    {{if .Disabled}}
    <p class="text-gray-500">Run history is disabled.</p>
    {{else}}
    {{with .Summary}}{{if .Total}}
    <p class="text-sm text-gray-500 mb-4">This page: {{.Completed}} completed, {{.Failed}} failed, {{.Discarded}} discarded{{if .Pending}}, {{.Pending}} pending{{end}}.</p>
    {{end}}{{end}}
    <div class="bg-white shadow overflow-hidden sm:rounded-md">
        <table class="min-w-full divide-y divide-gray-200">
            <thead class="bg-gray-50">
                <tr>
                    <th class="px-6 py-3 text-left text-xs font-medium text-gray-500 uppercase">Run</th>
                    <th class="px-6 py-3 text-left text-xs font-medium text-gray-500 uppercase">Algorithm</th>
                    <th class="px-6 py-3 text-left text-xs font-medium text-gray-500 uppercase">State</th>
                    <th class="px-6 py-3 text-left text-xs font-medium text-gray-500 uppercase">Created</th>
                    <th class="px-6 py-3 text-left text-xs font-medium text-gray-500 uppercase">Completed</th>
                </tr>
            </thead>
            <tbody class="bg-white divide-y divide-gray-200">
                {{range .Runs}}
                <tr class="hover:bg-gray-50">
                    <td class="px-6 py-4 text-sm font-mono"><a href="/runs/{{.ID}}" class="text-indigo-600 hover:text-indigo-500">{{truncate .ID 16}}</a></td>
                    <td class="px-6 py-4 text-sm text-gray-900"><a href="?algorithm={{.Algorithm}}">{{.Algorithm}}</a></td>
                    <td class="px-6 py-4 text-sm">
                        <span class="inline-flex items-center px-2.5 py-0.5 rounded-full text-xs font-medium bg-{{stateColor .State}}-100 text-{{stateColor .State}}-800">{{.State}}</span>
                    </td>
                    <td class="px-6 py-4 text-sm text-gray-500">{{formatTime .CreatedAt}}</td>
                    <td class="px-6 py-4 text-sm text-gray-500">{{formatTimePtr .CompletedAt}}</td>
                </tr>
                {{else}}
                <tr><td colspan="5" class="px-6 py-8 text-center text-gray-500">No runs recorded yet.</td></tr>
                {{end}}
            </tbody>
        </table>
    </div>

    {{if or .Pagination.HasPrev .Pagination.HasMore}}
    <div class="mt-4 flex justify-between">
        {{if .Pagination.HasPrev}}
        <a href="?offset={{.Pagination.PrevOffset}}&limit={{.Pagination.Limit}}&algorithm={{.Filter.Algorithm}}&state={{.Filter.State}}"
           class="inline-flex items-center px-4 py-2 border border-gray-300 text-sm font-medium rounded-md text-gray-700 bg-white hover:bg-gray-50">
            Previous
        </a>
        {{else}}
        <span></span>
        {{end}}
        <span class="text-sm text-gray-500">
            Showing {{add .Pagination.Offset 1}} - {{add .Pagination.Offset (len .Runs)}} of {{.Pagination.Total}}
        </span>
        {{if .Pagination.HasMore}}
        <a href="?offset={{.Pagination.NextOffset}}&limit={{.Pagination.Limit}}&algorithm={{.Filter.Algorithm}}&state={{.Filter.State}}"
           class="inline-flex items-center px-4 py-2 border border-gray-300 text-sm font-medium rounded-md text-gray-700 bg-white hover:bg-gray-50">
            Next
        </a>
        {{else}}
        <span></span>
        {{end}}
    </div>
    {{end}}
    {{end}}
</div>
{{end}}`,

	"runs/detail": `{{define "content"}}
<div class="px-4 py-6 sm:px-0">
    {{with .Run}}
    <div class="mb-6">
        <div class="flex items-center">
            <h1 class="text-2xl font-semibold text-gray-900 font-mono">{{.ID}}</h1>
            <span class="ml-3 inline-flex items-center px-2.5 py-0.5 rounded-full text-xs font-medium bg-{{stateColor .State}}-100 text-{{stateColor .State}}-800">{{.State}}</span>
        </div>
        <p class="mt-1 text-sm text-gray-500">
            <a href="/algorithms/{{.Algorithm}}" class="text-indigo-600 hover:text-indigo-500">{{.Algorithm}}</a>
            &middot; created {{formatTime .CreatedAt}} &middot; completed {{formatTimePtr .CompletedAt}}
        </p>
    </div>
    {{if .Error}}
    <div class="rounded-md bg-red-50 p-4 mb-6">
        <div class="text-sm text-red-700">{{.Error}}</div>
    </div>
    {{end}}
    {{end}}

    <div class="bg-white shadow rounded-lg p-6">
        <h2 class="text-lg font-medium text-gray-900 mb-2">Inputs</h2>
        {{template "values" .Inputs}}
    </div>

    {{if .Outputs}}
    <div class="bg-white shadow rounded-lg p-6 mt-6">
        <h2 class="text-lg font-medium text-gray-900 mb-2">Results</h2>
        {{template "values" .Outputs}}
    </div>
    {{end}}
    {{with .Gantt}}{{template "gantt" .}}{{end}}
</div>
{{end}}`,

	"components/matrix": `<div class="mt-6">
    <h3 class="text-lg font-medium text-gray-900">{{.Title}}</h3>
    {{if .Description}}<p class="text-sm text-gray-500 mb-2">{{.Description}}</p>{{end}}
    <div class="overflow-x-auto">
        <table class="min-w-0 divide-y divide-gray-200 border">
            <thead class="bg-gray-50">
                <tr>
                    <th class="px-3 py-2 text-left text-xs font-medium text-gray-500">{{.RowHeader}}</th>
                    {{range .Columns}}<th class="px-3 py-2 text-center text-xs font-medium text-gray-500">{{.}}</th>{{end}}
                </tr>
            </thead>
            <tbody class="divide-y divide-gray-200">
                {{$m := .}}
                {{range .Rows}}
                <tr>
                    <td class="px-3 py-1 text-sm text-gray-700">{{.Label}}</td>
                    {{range .Cells}}
                    <td class="px-3 py-1 text-center">
                        {{if eq $m.InputType "checkbox"}}
                        <input type="hidden" name="{{cellName $m.Name .Row .Col}}" value="0">
                        <input type="checkbox" name="{{cellName $m.Name .Row .Col}}" value="1" {{if .Checked}}checked{{end}}
                               class="h-4 w-4 text-indigo-600 border-gray-300 rounded">
                        {{else}}
                        <input type="{{$m.InputType}}" name="{{cellName $m.Name .Row .Col}}" value="{{.Value}}"
                               {{if eq $m.InputType "number"}}step="{{$m.Step}}"{{end}}
                               class="w-20 border border-gray-300 rounded-md py-1 px-2 text-sm">
                        {{end}}
                    </td>
                    {{end}}
                </tr>
                {{end}}
            </tbody>
        </table>
    </div>
    {{if .Error}}<p class="mt-1 text-sm text-red-600">{{.Error}}</p>{{end}}
</div>`,

	"components/values": `<dl class="divide-y divide-gray-200">
    {{range .}}
    <div class="py-3">
        <dt class="text-sm font-medium text-gray-500">{{.Title}}</dt>
        <dd class="mt-1 text-sm text-gray-900">
            {{if .Table}}
            <table class="border">
                {{range .Table}}<tr>{{range .}}<td class="border px-2 py-1 text-center font-mono">{{.}}</td>{{end}}</tr>{{end}}
            </table>
            {{else}}
            <span class="font-mono">{{.Text}}</span>
            {{end}}
        </dd>
    </div>
    {{end}}
</dl>`,

	"components/gantt": `<div class="bg-white shadow rounded-lg p-6 mt-6 overflow-x-auto">
    <h2 class="text-lg font-medium text-gray-900 mb-4">Gantt chart</h2>
    {{if .Empty}}
    <p class="text-sm text-red-600">No schedule data to display.</p>
    {{else}}
    {{range .Lanes}}
    <div class="mb-8">
        <p class="text-sm font-medium text-gray-700 mb-1">{{.Name}}</p>
        <div class="relative h-16 bg-gray-100 rounded">
            {{range $.Ticks}}
            <div class="absolute h-full w-px bg-gray-400" style="left: {{.Left}}%">
                <span class="absolute top-full mt-1 text-xs -translate-x-1/2">{{.Label}}</span>
            </div>
            {{end}}
            {{range .Boxes}}
            <div class="absolute top-3 h-10 rounded shadow flex items-center justify-center text-white text-xs font-bold"
                 style="left: {{.Left}}%; width: {{.Width}}%; background-color: {{.Color}}"
                 title="{{.Tooltip}}">{{.Label}}</div>
            {{end}}
        </div>
    </div>
    {{end}}
    <p class="mt-2 font-bold text-gray-900">Total duration: {{.TotalDuration}}</p>
    {{end}}
</div>`,
}
