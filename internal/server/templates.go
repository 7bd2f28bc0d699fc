package server

// pageTemplates holds every html/template the search frontend renders.
// Kept minimal per spec.md §6 — templating itself is explicitly out of the
// core's scope, this just makes the routes runnable end to end.
const pageTemplates = `
{{define "index"}}
<!doctype html>
<html><head><title>croissantine</title></head>
<body>
<h1>croissantine</h1>
<form action="/search" method="get">
  <input type="text" name="query" autofocus>
  <button type="submit">Search</button>
</form>
<p>{{.UniverseSize}} documents indexed.</p>
<p><a href="/about">about</a></p>
</body></html>
{{end}}

{{define "search"}}
<!doctype html>
<html><head><title>{{.Query}} — croissantine</title></head>
<body>
<form action="/search" method="get">
  <input type="text" name="query" value="{{.Query}}">
  <button type="submit">Search</button>
</form>
<p>{{.Result.Count}} results for "{{.Query}}"</p>
<ol>
{{range $i, $hit := .Result.Hits}}
  <li><a href="/redirect?url={{$hit.URI}}&index={{$i}}&query={{$.Query}}">{{$hit.URI}}</a></li>
{{end}}
</ol>
</body></html>
{{end}}

{{define "indexer"}}
<!doctype html>
<html><head><title>indexer status</title></head>
<body>
<h1>Queued tasks</h1>
<table border="1">
<tr><th>priority</th><th>kind</th><th>url</th></tr>
{{range .Pending}}
<tr><td>{{.Priority}}</td><td>{{.Task.Kind}}</td><td>{{.Task.URL}}</td></tr>
{{end}}
</table>
<h2>Register a crawl</h2>
<form action="/register-warc" method="post">
  <input type="text" name="warcId" placeholder="CC-MAIN-2024-10">
  <button type="submit">Register</button>
</form>
</body></html>
{{end}}
`
