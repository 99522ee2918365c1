package rod

const (
	BasicHTML = `<!DOCTYPE html>
<html>
<head><title>Test Page</title></head>
<body>
	<h1>Hello World</h1>
	<p id="intro">Plain paragraph</p>
</body>
</html>`

	FormHTML = `<!DOCTYPE html>
<html>
<head><title>Form</title></head>
<body>
	<form id="testForm" onsubmit="document.getElementById('out').textContent = document.getElementById('q').value; return false;">
		<input id="q" type="search" name="q" aria-label="Search" />
		<button id="submit" type="submit">Submit</button>
	</form>
	<div id="out"></div>
</body>
</html>`

	InteractiveHTML = `<!DOCTYPE html>
<html>
<head><title>Interactive</title></head>
<body>
	<button id="btn">Click Me</button>
	<a href="/next">Next page</a>
	<div id="result"></div>
	<script>
		document.getElementById('btn').addEventListener('click', function() {
			document.getElementById('result').textContent = 'Clicked!';
		});
	</script>
</body>
</html>`

	ScrollableHTML = `<!DOCTYPE html>
<html>
<body style="height: 5000px;">
	<h1 id="top">Top of Page</h1>
	<div style="margin-top: 2000px;" id="middle">Middle</div>
</body>
</html>`
)
