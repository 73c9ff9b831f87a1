package web

import "html/template"

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { margin: 0; font-family: 'Helvetica Neue', sans-serif; background: #2b2b2b; color: #fff; }
.overlay { background: rgba(0, 0, 0, 0.6); min-height: 100vh; padding: 60px 20px; display: flex; flex-direction: column; align-items: center; justify-content: start; }
h1 { font-size: 2.8em; margin-bottom: 30px; color: #f9d342; text-shadow: 2px 2px #222; }
form { margin-bottom: 30px; background: rgba(255, 255, 255, 0.15); padding: 20px; border-radius: 15px; backdrop-filter: blur(5px); }
input[type="text"] { padding: 10px; width: 300px; border: none; border-radius: 8px; font-size: 1em; margin-right: 10px; }
input[type="submit"] { padding: 10px 20px; background-color: #f9d342; color: #333; border: none; border-radius: 8px; font-weight: bold; cursor: pointer; }
input[type="submit"]:hover { background-color: #f0c93b; }
.result { max-width: 800px; text-align: left; background: rgba(255, 255, 255, 0.1); padding: 20px; border-radius: 15px; backdrop-filter: blur(4px); box-shadow: 0 4px 10px rgba(0,0,0,0.3); }
.result h2 { color: #f9d342; }
.result img { margin-top: 20px; max-width: 100%; border-radius: 12px; }
</style>
</head>
<body>
<div class="overlay">
<h1>{{.Title}}</h1>
<form method="post" action="/">
<input type="text" name="school_name" placeholder="Enter school name" value="{{.Query}}" required>
<input type="submit" value="Analyze">
</form>
{{- if or .Message .Result}}
<div class="result">
{{- with .Message}}
<p>{{.}}</p>
{{- end}}
{{- if .Suggestions}}
<p>Did you mean: {{range $i, $s := .Suggestions}}{{if $i}}, {{end}}<em>{{$s}}</em>{{end}}?</p>
{{- end}}
{{- with .Result}}
<h2>{{.Heading}}</h2>
{{- range .Lines}}
<p>{{.}}</p>
{{- end}}
{{- if .ChartURL}}
<img src="{{.ChartURL}}" alt="{{.Heading}} chart">
{{- else if .NoChart}}
<p>No chart available due to missing data for this school.</p>
{{- end}}
{{- end}}
</div>
{{- end}}
</div>
</body>
</html>
`))
