/*
Package export assembles deployment packages for site scripts and site designs.

A package is a flat set of files: one display-form JSON file per script and a
deploy.ps1 PowerShell script that registers them with the SharePoint Online
Management Shell (Add-SPOSiteScript, then Add-SPOSiteDesign for a design, passing
the script IDs in design order).
*/
package export
