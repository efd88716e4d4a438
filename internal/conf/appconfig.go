package conf

/*
 Copyright 2019 - 2025 Crunchy Data Solutions, Inc.
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at
      http://www.apache.org/licenses/LICENSE-2.0
 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

var setVersion string = "0.1.0"

// AppConfiguration is the set of global application constants, not subject
// to runtime configuration.
type AppConfiguration struct {
	Name      string
	Version   string
	EnvPrefix string
}

var AppConfig = AppConfiguration{
	Name:      "occurrence-tileserver",
	Version:   setVersion,
	EnvPrefix: "OCCTS",
}
