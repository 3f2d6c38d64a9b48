/*
Package inno generates, and compiles, Inno Setup installer scripts.

Background and Theory Of Operations

An Inno Setup script is an ini-like file. It is split into bracketed
sections ([Setup], [Files], [Run], ...) and each section holds either
key=value settings or semicolon separated directives, eg:

	Source: "app.exe"; DestDir: "{app}\"; Flags: ignoreversion

Users rarely want to write the whole script. They want to write the
interesting bits, and have the tedious parts (file lists, service
registration, shortcuts) generated from the build output. So the
Merger takes a user script as a template, walks its sections, and
lets a per-section handler combine the user's lines with generated
ones. Sections the installer can't do without are added when the
template lacks them.

The Compiler then shells out to the Inno Setup compiler, either
natively or through docker and wine.

References

 1. https://jrsoftware.org/ishelp/
 2. https://jrsoftware.org/ishelp/index.php?topic=compilercmdline
*/
package inno
