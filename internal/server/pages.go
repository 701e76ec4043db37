package server

import (
	"html/template"
)

var levels = []string{"Intern", "Junior", "Senior"}

var pages = template.Must(template.New("layout").Parse(`{{define "layout"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Employee Management System</title>
<style>
body { font-family: Arial, sans-serif; margin: 2rem; }
table { border-collapse: collapse; margin-top: 1rem; }
th, td { border: 1px solid #ccc; padding: 4px 10px; }
label { display: block; margin-top: 0.5rem; }
</style>
</head>
<body>
{{if eq .Page "list"}}{{template "list" .}}{{else}}{{template "form" .}}{{end}}
</body>
</html>
{{end}}

{{define "list"}}
<h3>Employee Records</h3>
<a href="/create">Create Employee</a>
<table>
<thead><tr><th>Name</th><th>Position</th><th>Level</th><th>Action</th></tr></thead>
<tbody>
{{range .Employees}}<tr data-id="{{.ID}}">
<td>{{.Name}}</td>
<td>{{.Position}}</td>
<td>{{.Level}}</td>
<td><a href="/edit/{{.ID}}">Edit</a> <button type="button" onclick="deleteEmployee({{.ID}}, this)">Delete</button></td>
</tr>
{{end}}</tbody>
</table>
<script>
function deleteEmployee(id, button) {
  fetch('/api/employees/' + id, { method: 'DELETE' }).then(function (res) {
    if (res.ok) { button.closest('tr').remove(); }
  });
}
</script>
{{end}}

{{define "form"}}
<h3>Create/Update Employee</h3>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
<form method="post" action="{{.Action}}">
<label for="name">Name</label>
<input type="text" id="name" name="name" value="{{.Employee.Name}}">
<label for="position">Position</label>
<input type="text" id="position" name="position" value="{{.Employee.Position}}">
<fieldset>
<legend>Level</legend>
{{$current := .Employee.Level}}{{range .Levels}}<label><input type="radio" id="position{{.}}" name="level" value="{{.}}"{{if eq . $current}} checked{{end}}> {{.}}</label>
{{end}}</fieldset>
<input type="submit" value="Submit">
</form>
<a href="/">Back</a>
{{end}}`))

type pageData struct {
	Page      string
	Employees []Employee
	Employee  Employee
	Levels    []string
	Action    string
	Error     string
}
