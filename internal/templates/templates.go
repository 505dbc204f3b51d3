// Package templates holds the starter content used when scaffolding a new
// customization page locally before its first publish.
package templates

import (
	"fmt"
	"sort"
)

// Template is a named starter file.
type Template struct {
	Name      string
	Extension string
	Content   string
}

// Lookup returns the template registered under the given key.
func Lookup(key string) (Template, error) {
	tpl, ok := registry[key]
	if !ok {
		return Template{}, fmt.Errorf("templates: unknown template %q (available: %v)", key, Names())
	}

	return tpl, nil
}

// Names returns the registered template keys, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

var registry = map[string]Template{
	"admin-student": {
		Name:      "Admin Student Page",
		Extension: ".html",
		Content: `<!--
TemplateName:Admin Student Page
-->
<!DOCTYPE html>
<html>
<head>
	<title>New Page</title>
<!-- required scripts -->
	~[wc:commonscripts]
<!-- Required style sheets: screen.css, and print.css -->
	<link href="/images/css/screen.css" rel="stylesheet" media="screen">
	<link href="/images/css/print.css" rel="stylesheet" media="print">
</head>
<body>
	~[wc:admin_header_frame_css]
	<!-- breadcrumb start -->
		<a href="/admin/home.html" target="_top">Start Page</a> &gt; <a href="/admin/students/home.html?selectstudent=nosearch" target="_top">Student Selection</a> &gt; New Page
	<!-- breadcrumb end -->
~[wc:admin_navigation_frame_css]
<!-- start of main menu and content -->
~[wc:title_student_begin_css]New Page~[wc:title_student_end_css]
<form action="/~[self.page]?frn=~(studentfrn)&changesSaved=true" method="POST">
<!-- start of content area -->
~[if.~(gpv.changesSaved)=true]<div class="feedback-confirm">~[text:psx.common.changes_recorded]</div>[/if]
	<div class="box-round">
		 <h2>Section Title Text Goes Here</h2>
		 <p>
		 	Your paragraph text goes here.
		 </p>
        <div class="button-row"><input type="hidden" name="ac" value="prim">~[submitbutton]</div>
	</div>
</form>
<!-- end of content area -->
	~[wc:admin_footer_frame_css]
</body>
</html>`,
	},
	"admin-general": {
		Name:      "Admin General Page",
		Extension: ".html",
		Content: `<!--
TemplateName:Admin General Page
-->
<!DOCTYPE html>
<html>
<head>
	<title>New Admin Page</title>
<!-- required scripts -->
	~[wc:commonscripts]
<!-- Required style sheets: screen.css, and print.css -->
	<link href="/images/css/screen.css" rel="stylesheet" media="screen">
	<link href="/images/css/print.css" rel="stylesheet" media="print">
</head>
<body>
	~[wc:admin_header_frame_css]
	<!-- breadcrumb start -->
		<a href="/admin/home.html" target="_top">Start Page</a> &gt; New Admin Page
	<!-- breadcrumb end -->
~[wc:admin_navigation_frame_css]
<!-- start of main menu and content -->
~[wc:title_bar_begin_css]New Admin Page~[wc:title_bar_end_css]
<form action="/~[self.page]?changesSaved=true" method="POST">
<!-- start of content area -->
~[if.~(gpv.changesSaved)=true]<div class="feedback-confirm">~[text:psx.common.changes_recorded]</div>[/if]
	<div class="box-round">
		 <h2>Admin Page Content</h2>
		 <p>
		 	Your admin page content goes here.
		 </p>
        <div class="button-row"><input type="hidden" name="ac" value="prim">~[submitbutton]</div>
	</div>
</form>
<!-- end of content area -->
	~[wc:admin_footer_frame_css]
</body>
</html>`,
	},
	"public": {
		Name:      "Public Page",
		Extension: ".html",
		Content: `<!--
TemplateName:Public Page
-->
<!DOCTYPE html>
<html>
<head>
	<title>New Public Page</title>
<!-- Required style sheets: screen.css, and print.css -->
	<link href="/images/css/screen.css" rel="stylesheet" media="screen">
	<link href="/images/css/print.css" rel="stylesheet" media="print">
    ~[wc:commonscripts]
</head>
<body>
	~[wc:public_header_frame_css]
<!-- start of main content -->
	<div class="box-round">
		 <h1>New Public Page</h1>
		 <p>
		 	Your public page content goes here.
		 </p>
	</div>
<!-- end of main content -->
	~[wc:public_footer_frame_css]
</body>
</html>`,
	},
	"javascript": {
		Name:      "JavaScript File",
		Extension: ".js",
		Content: `// Custom JavaScript

(function() {
    'use strict';

    // Your JavaScript code goes here

    $(document).ready(function() {
        // DOM manipulation code here
    });

})();`,
	},
	"css": {
		Name:      "CSS Stylesheet",
		Extension: ".css",
		Content: `/* Custom CSS */

.custom-style {
    /* Your custom styles */
}

/* Responsive design */
@media (max-width: 768px) {
    /* Mobile styles */
}`,
	},
}
