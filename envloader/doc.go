// Copyright 2025 Raywall Malheiros de Souza
// Licensed under the Mozilla Public License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.mozilla.org/en-US/MPL/2.0/
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// Package envloader carrega variáveis de ambiente para campos de uma struct
// usando as tags `env`, `envDefault` e `envSeparator`.
//
// Tipos suportados: string, inteiros, bool, floats, time.Duration e slices
// desses tipos. Structs aninhadas (inclusive ponteiros) são percorridas.
// A opção `required` em `env:"NOME,required"` faz Load falhar com
// *MissingVarError quando a variável e o default estão vazios.
//
// O servidor do mock usa o pacote para os parâmetros de boot:
//
//	type bootConfig struct {
//	    ConfigPath      string        `env:"CONFIG_FILE_PATH,required"`
//	    EnvFiles        []string      `env:"MOCK_ENV_FILES" envDefault:".env"`
//	    ShutdownTimeout time.Duration `env:"MOCK_SHUTDOWN_TIMEOUT" envDefault:"5s"`
//	}
//
//	var boot bootConfig
//	if err := envloader.Load(&boot); err != nil {
//	    log.Fatal(err)
//	}
package envloader
