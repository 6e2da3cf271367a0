// Package generator materializes a resolved template into a new project
// directory, rendering .tmpl files with the supplied variable values and
// copying everything else verbatim.
package generator
